package middleware

import (
	"net/http"
	"strings"

	"github.com/authlane/auth-server/internal/application/auth"
	"github.com/authlane/auth-server/internal/domain"
	"github.com/authlane/auth-server/internal/infrastructure/security"
	"github.com/authlane/auth-server/internal/transport/http/response"
)

type TokenVerifier interface {
	VerifyToken(token string) (auth.TokenClaims, error)
}

type WriteErrFunc func(http.ResponseWriter, *http.Request, error)

// AccessTokenSources is the lookup order used by the guard.
var AccessTokenSources = []TokenSource{
	FromBody("token"),
	FromCookie(security.AccessCookieName),
	FromBearer(),
}

// Auth verifies the access token and injects its claims into the request
// context. A nil writeErr falls back to response.WriteError.
func Auth(verifier TokenVerifier, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	if writeErr == nil {
		writeErr = response.WriteError
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := FirstToken(r, AccessTokenSources...)
			if raw == "" {
				writeErr(w, r, domain.ErrTokenMissing())
				return
			}

			claims, err := verifier.VerifyToken(raw)
			if err != nil {
				writeErr(w, r, err)
				return
			}
			if strings.TrimSpace(claims.UserID) == "" {
				writeErr(w, r, domain.ErrTokenInvalid())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}
