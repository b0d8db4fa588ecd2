package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// TokenLifetime is how long a session token stays valid
const TokenLifetime = 7 * 24 * time.Hour

// AnonymousUserSub identifies the built-in user of no-authentication mode
const AnonymousUserSub = "anonymous"

var (
	ErrInvalidToken = goerr.New("invalid token")
	ErrTokenExpired = goerr.New("token expired")
)

type TokenID string

func NewTokenID() TokenID {
	return TokenID(uuid.NewString())
}

func (x TokenID) String() string { return string(x) }

func (x TokenID) Validate() error {
	if x == "" {
		return goerr.Wrap(ErrInvalidToken, "empty token ID")
	}
	if _, err := uuid.Parse(string(x)); err != nil {
		return goerr.Wrap(ErrInvalidToken, "malformed token ID", goerr.V("token_id", x))
	}
	return nil
}

// TokenSecret is masked in logs
type TokenSecret string

func NewTokenSecret() TokenSecret {
	buf := make([]byte, 32)
	// crypto/rand.Read never returns an error
	_, _ = rand.Read(buf)
	return TokenSecret(hex.EncodeToString(buf))
}

func (x TokenSecret) String() string { return string(x) }

// Token is a server side session bound to a signed in user
type Token struct {
	ID        TokenID     `json:"id" firestore:"id"`
	Secret    TokenSecret `json:"secret" firestore:"secret" masq:"secret"`
	Sub       string      `json:"sub" firestore:"sub"`
	Email     string      `json:"email" firestore:"email"`
	Name      string      `json:"name" firestore:"name"`
	ExpiresAt time.Time   `json:"expires_at" firestore:"expires_at"`
	CreatedAt time.Time   `json:"created_at" firestore:"created_at"`
}

// NewToken issues a token for the user identified by sub
func NewToken(sub, email, name string) *Token {
	now := time.Now()
	return &Token{
		ID:        NewTokenID(),
		Secret:    NewTokenSecret(),
		Sub:       sub,
		Email:     email,
		Name:      name,
		ExpiresAt: now.Add(TokenLifetime),
		CreatedAt: now,
	}
}

// NewAnonymousUser returns the token used when authentication is disabled
func NewAnonymousUser() *Token {
	return NewToken(AnonymousUserSub, "anonymous@localhost", "Anonymous")
}

func (t *Token) Validate() error {
	if err := t.ID.Validate(); err != nil {
		return err
	}
	if t.Secret == "" {
		return goerr.Wrap(ErrInvalidToken, "empty token secret", goerr.V("token_id", t.ID))
	}
	if t.Sub == "" {
		return goerr.Wrap(ErrInvalidToken, "empty subject", goerr.V("token_id", t.ID))
	}
	return nil
}

func (t *Token) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsAnonymous reports whether the token belongs to the no-authentication user
func (t *Token) IsAnonymous() bool {
	return t.Sub == AnonymousUserSub
}
