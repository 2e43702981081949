package http_handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/authlane/auth-server/internal/application/auth"
	"github.com/authlane/auth-server/internal/infrastructure/memory"
	"github.com/authlane/auth-server/internal/infrastructure/security"
)

type handlerEnv struct {
	users   *memory.UserRepo
	signer  *security.JWTSigner
	svc     *auth.Service
	handler *AuthHandler
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	signer, err := security.NewJWTSigner("test-secret", "HS256", "")
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	users := memory.NewUserRepo()
	svc := auth.NewService(users, security.NewBcryptHasher(bcrypt.MinCost), signer, nil, auth.Config{})

	return &handlerEnv{
		users:   users,
		signer:  signer,
		svc:     svc,
		handler: NewAuthHandler(svc, security.CookiePolicy{TrustProxy: true}),
	}
}

// mustJSONBody marshals v to JSON and returns an io.Reader for request body.
func mustJSONBody(t *testing.T, v any) io.Reader {
	t.Helper()

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json marshal: %v", err)
	}
	return bytes.NewReader(b)
}

type envelope struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Code       string          `json:"code"`
	Data       json.RawMessage `json:"data"`
}

func mustReadEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body: %v; body=%s", err, rr.Body.String())
	}
	return env
}

// readCookie finds cookie by name from response headers.
func readCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
