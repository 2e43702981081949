package middleware

import (
	"context"

	"github.com/authlane/auth-server/internal/application/auth"
)

type ctxKey string

const ctxClaims ctxKey = "claims"

func WithClaims(ctx context.Context, c auth.TokenClaims) context.Context {
	return context.WithValue(ctx, ctxClaims, c)
}

func ClaimsFromContext(ctx context.Context) (auth.TokenClaims, bool) {
	c, ok := ctx.Value(ctxClaims).(auth.TokenClaims)
	return c, ok && c.UserID != ""
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	c, ok := ClaimsFromContext(ctx)
	return c.UserID, ok
}
