package auth

import "context"

type ctxTokenKey struct{}

func ContextWithToken(ctx context.Context, token *Token) context.Context {
	return context.WithValue(ctx, ctxTokenKey{}, token)
}

// TokenFromContext returns nil if no token is attached
func TokenFromContext(ctx context.Context) *Token {
	token, _ := ctx.Value(ctxTokenKey{}).(*Token)
	return token
}
