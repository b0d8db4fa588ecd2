package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
	"github.com/secmon-lab/casedesk/pkg/domain/model"
	"github.com/secmon-lab/casedesk/pkg/domain/model/auth"
	"github.com/secmon-lab/casedesk/pkg/domain/types"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
)

// AuthEvent is delivered to listeners when a user signs in or out
type AuthEvent struct {
	Token    *auth.Token
	SignedIn bool
}

// AuthUseCaseInterface is implemented by every authentication backend
type AuthUseCaseInterface interface {
	SignIn(ctx context.Context, email, password string) (*auth.Token, error)
	SignOut(ctx context.Context, tokenID auth.TokenID) error
	ValidateToken(ctx context.Context, tokenID auth.TokenID, tokenSecret auth.TokenSecret) (*auth.Token, error)
	IsNoAuthn() bool
	OnAuthStateChange(listener func(AuthEvent))
}

// sessions issues and validates server side tokens. Backends embed it and
// only implement the credential check.
type sessions struct {
	repo  interfaces.Repository
	cache *authCache

	mu        sync.RWMutex
	listeners []func(AuthEvent)
}

func newSessions(repo interfaces.Repository) *sessions {
	return &sessions{
		repo:  repo,
		cache: newAuthCache(),
	}
}

// OnAuthStateChange registers listener for sign in and sign out events
func (s *sessions) OnAuthStateChange(listener func(AuthEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *sessions) emit(event AuthEvent) {
	s.mu.RLock()
	listeners := make([]func(AuthEvent), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// issue stores a new token for the user and registers the user in the
// directory
func (s *sessions) issue(ctx context.Context, sub, email, name string) (*auth.Token, error) {
	token := auth.NewToken(sub, model.NormalizeEmail(email), name)
	if err := s.repo.PutToken(ctx, token); err != nil {
		return nil, goerr.Wrap(err, "failed to store token", goerr.V(UserIDKey, sub))
	}

	if token.Email != "" {
		user := &model.User{
			ID:        types.UserID(sub),
			Email:     token.Email,
			Name:      name,
			UpdatedAt: time.Now().UTC(),
		}
		if err := s.repo.User().Save(ctx, user); err != nil {
			return nil, goerr.Wrap(err, "failed to register user", goerr.V(UserIDKey, sub))
		}
	}

	logging.From(ctx).Info("user signed in", "sub", sub, "email", token.Email, "token", token)
	s.emit(AuthEvent{Token: token, SignedIn: true})
	return token, nil
}

// SignOut deletes the token. Unknown tokens are ignored.
func (s *sessions) SignOut(ctx context.Context, tokenID auth.TokenID) error {
	s.cache.remove(tokenID)

	token, err := s.repo.GetToken(ctx, tokenID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil
		}
		return goerr.Wrap(err, "failed to get token", goerr.V("token_id", tokenID))
	}

	if err := s.repo.DeleteToken(ctx, tokenID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return goerr.Wrap(err, "failed to delete token", goerr.V("token_id", tokenID))
	}

	logging.From(ctx).Info("user signed out", "sub", token.Sub)
	s.emit(AuthEvent{Token: token, SignedIn: false})
	return nil
}

// ValidateToken checks secret and expiration, consulting the cache first
func (s *sessions) ValidateToken(ctx context.Context, tokenID auth.TokenID, tokenSecret auth.TokenSecret) (*auth.Token, error) {
	if token, ok := s.cache.get(tokenID); ok {
		if token.Secret != tokenSecret {
			return nil, goerr.Wrap(ErrUnauthenticated, "invalid token secret", goerr.V("token_id", tokenID))
		}
		if token.IsExpired() {
			s.cache.remove(tokenID)
			return nil, goerr.Wrap(auth.ErrTokenExpired, "token expired", goerr.V("token_id", tokenID))
		}
		return token, nil
	}

	token, err := s.repo.GetToken(ctx, tokenID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) || errors.Is(err, auth.ErrInvalidToken) {
			return nil, goerr.Wrap(ErrUnauthenticated, "unknown token", goerr.V("token_id", tokenID))
		}
		return nil, goerr.Wrap(err, "failed to get token from repository")
	}

	if token.Secret != tokenSecret {
		return nil, goerr.Wrap(ErrUnauthenticated, "invalid token secret", goerr.V("token_id", tokenID))
	}

	if token.IsExpired() {
		if err := s.repo.DeleteToken(ctx, tokenID); err != nil {
			return nil, goerr.Wrap(err, "failed to delete expired token", goerr.V("token_id", tokenID))
		}
		return nil, goerr.Wrap(auth.ErrTokenExpired, "token expired", goerr.V("token_id", tokenID))
	}

	s.cache.set(token)
	return token, nil
}

// IsNoAuthn returns false for backends checking credentials
func (s *sessions) IsNoAuthn() bool {
	return false
}
