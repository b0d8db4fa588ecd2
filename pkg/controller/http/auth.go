package http

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/model/auth"
	"github.com/secmon-lab/casedesk/pkg/usecase"
)

type AuthUseCase = usecase.AuthUseCaseInterface

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password" masq:"secret"`
}

type userMeResponse struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func newUserMeResponse(token *auth.Token) userMeResponse {
	return userMeResponse{
		Sub:   token.Sub,
		Email: token.Email,
		Name:  token.Name,
	}
}

func setAuthCookies(w http.ResponseWriter, r *http.Request, token *auth.Token) {
	for name, value := range map[string]string{
		tokenIDCookieName:     token.ID.String(),
		tokenSecretCookieName: token.Secret.String(),
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
			Expires:  token.ExpiresAt,
		})
	}
}

func clearAuthCookies(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{tokenIDCookieName, tokenSecretCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}
}

// authLoginHandler checks email and password and starts a cookie session
func authLoginHandler(authUC AuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req loginRequest
		if !authUC.IsNoAuthn() {
			if err := decodeJSON(r, &req); err != nil {
				writeError(ctx, w, err)
				return
			}
			if req.Email == "" || req.Password == "" {
				writeError(ctx, w, goerr.Wrap(errInvalidRequest, "email and password are required"))
				return
			}
		}

		token, err := authUC.SignIn(ctx, req.Email, req.Password)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		setAuthCookies(w, r, token)
		writeJSON(ctx, w, http.StatusOK, newUserMeResponse(token))
	}
}

// authLogoutHandler deletes the session and clears the cookies
func authLogoutHandler(authUC AuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if tokenIDCookie, err := r.Cookie(tokenIDCookieName); err == nil {
			tokenID := auth.TokenID(tokenIDCookie.Value)
			if err := tokenID.Validate(); err == nil {
				if err := authUC.SignOut(ctx, tokenID); err != nil {
					writeError(ctx, w, goerr.Wrap(err, "failed to sign out"))
					return
				}
			}
		}

		clearAuthCookies(w, r)
		writeJSON(ctx, w, http.StatusOK, successResponse{Success: true})
	}
}

// authMeHandler returns the signed in user
func authMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := auth.TokenFromContext(r.Context())
		if token == nil {
			writeError(r.Context(), w, goerr.Wrap(errUnauthenticated, "no session"))
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, newUserMeResponse(token))
	}
}
