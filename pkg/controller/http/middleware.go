package http

import (
	"context"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/model/auth"
	"github.com/secmon-lab/casedesk/pkg/utils/errutil"
	"github.com/secmon-lab/casedesk/pkg/utils/logging"
)

const (
	tokenIDCookieName     = "token_id"
	tokenSecretCookieName = "token_secret"
)

// authMiddleware validates the session cookies and puts the token into the
// request context
func authMiddleware(authUC AuthUseCase) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// NoAuthn backends return their fixed user for any token
			if authUC.IsNoAuthn() {
				token, err := authUC.ValidateToken(ctx, "", "")
				if err != nil {
					errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r.WithContext(withUser(r, token)))
				return
			}

			tokenIDCookie, err := r.Cookie(tokenIDCookieName)
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(errUnauthenticated, "missing token_id cookie"), http.StatusUnauthorized)
				return
			}
			tokenSecretCookie, err := r.Cookie(tokenSecretCookieName)
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(errUnauthenticated, "missing token_secret cookie"), http.StatusUnauthorized)
				return
			}

			token, err := authUC.ValidateToken(ctx,
				auth.TokenID(tokenIDCookie.Value),
				auth.TokenSecret(tokenSecretCookie.Value))
			if err != nil {
				writeError(ctx, w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withUser(r, token)))
		})
	}
}

// withUser returns the request context carrying token and a logger tagged
// with the user
func withUser(r *http.Request, token *auth.Token) context.Context {
	ctx := auth.ContextWithToken(r.Context(), token)
	return logging.With(ctx, logging.From(ctx).With("user", token.Sub))
}
