package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
	"github.com/secmon-lab/casedesk/pkg/domain/model/auth"
	"github.com/secmon-lab/casedesk/pkg/utils/safe"
)

const (
	firebaseSignInURL = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"
	firebaseJWKSURL   = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
	firebaseIssuer    = "https://securetoken.google.com/"
)

// FirebaseAuthUseCase signs users in with Firebase Authentication email and
// password accounts. The returned ID token is verified before a session is
// issued.
type FirebaseAuthUseCase struct {
	*sessions
	apiKey     string
	projectID  string
	signInURL  string
	jwksURL    string
	httpClient *http.Client
}

var _ AuthUseCaseInterface = &FirebaseAuthUseCase{}

type FirebaseOption func(*FirebaseAuthUseCase)

// WithFirebaseEndpoints replaces the sign-in and JWKS endpoints
func WithFirebaseEndpoints(signInURL, jwksURL string) FirebaseOption {
	return func(uc *FirebaseAuthUseCase) {
		uc.signInURL = signInURL
		uc.jwksURL = jwksURL
	}
}

func WithFirebaseHTTPClient(client *http.Client) FirebaseOption {
	return func(uc *FirebaseAuthUseCase) {
		uc.httpClient = client
	}
}

func NewFirebaseAuthUseCase(repo interfaces.Repository, apiKey, projectID string, opts ...FirebaseOption) *FirebaseAuthUseCase {
	uc := &FirebaseAuthUseCase{
		sessions:   newSessions(repo),
		apiKey:     apiKey,
		projectID:  projectID,
		signInURL:  firebaseSignInURL,
		jwksURL:    firebaseJWKSURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

type firebaseSignInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type firebaseSignInResponse struct {
	IDToken     string `json:"idToken"`
	Email       string `json:"email"`
	LocalID     string `json:"localId"`
	DisplayName string `json:"displayName"`
	Error       *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (uc *FirebaseAuthUseCase) SignIn(ctx context.Context, email, password string) (*auth.Token, error) {
	resp, err := uc.signInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	claims, err := uc.verifyIDToken(ctx, resp.IDToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to verify firebase ID token")
	}

	name := resp.DisplayName
	if name == "" {
		name = claims.email
	}
	return uc.issue(ctx, claims.sub, claims.email, name)
}

func (uc *FirebaseAuthUseCase) signInWithPassword(ctx context.Context, email, password string) (*firebaseSignInResponse, error) {
	body, err := json.Marshal(firebaseSignInRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode sign-in request")
	}

	endpoint := uc.signInURL + "?key=" + url.QueryEscape(uc.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := uc.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call firebase sign-in")
	}
	defer safe.Close(ctx, httpResp.Body)

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read sign-in response")
	}

	var resp firebaseSignInResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to parse sign-in response", goerr.V("status", httpResp.StatusCode))
	}

	if httpResp.StatusCode == http.StatusBadRequest && resp.Error != nil {
		// EMAIL_NOT_FOUND, INVALID_PASSWORD, INVALID_LOGIN_CREDENTIALS, USER_DISABLED
		return nil, goerr.Wrap(ErrInvalidCredentials, "firebase rejected credentials",
			goerr.V("reason", resp.Error.Message), goerr.V(EmailKey, email))
	}
	if httpResp.StatusCode != http.StatusOK || resp.Error != nil {
		return nil, goerr.New("firebase sign-in failed", goerr.V("status", httpResp.StatusCode), goerr.V("body", string(raw)))
	}
	if resp.IDToken == "" {
		return nil, goerr.New("firebase sign-in returned no ID token")
	}

	return &resp, nil
}

type firebaseClaims struct {
	sub   string
	email string
}

// verifyIDToken checks signature, issuer, audience and expiry of a Firebase
// ID token
func (uc *FirebaseAuthUseCase) verifyIDToken(ctx context.Context, idToken string) (*firebaseClaims, error) {
	keySet, err := jwk.Fetch(ctx, uc.jwksURL, jwk.WithHTTPClient(uc.httpClient))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch securetoken public keys", goerr.V("jwks_uri", uc.jwksURL))
	}

	token, err := jwt.Parse([]byte(idToken),
		jwt.WithKeySet(keySet, jws.WithInferAlgorithmFromKey(true)),
		jwt.WithValidate(true),
		jwt.WithIssuer(firebaseIssuer+uc.projectID),
		jwt.WithAudience(uc.projectID),
		jwt.WithAcceptableSkew(10*time.Second),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse or verify JWT token")
	}

	if token.Subject() == "" {
		return nil, goerr.New("sub claim not found in token")
	}

	email, ok := token.Get("email")
	if !ok {
		return nil, goerr.New("email claim not found in token", goerr.V("sub", token.Subject()))
	}
	emailStr, ok := email.(string)
	if !ok {
		return nil, goerr.New("email claim is not a string", goerr.V("sub", token.Subject()))
	}

	return &firebaseClaims{
		sub:   token.Subject(),
		email: emailStr,
	}, nil
}
