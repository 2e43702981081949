package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

const maxPeekBytes = 1 << 20

// TokenSource extracts a candidate token from a request, or "".
type TokenSource func(r *http.Request) string

// FirstToken returns the first non-empty token produced by sources.
func FirstToken(r *http.Request, sources ...TokenSource) string {
	for _, src := range sources {
		if tok := src(r); tok != "" {
			return tok
		}
	}
	return ""
}

// FromBody reads a string field from a JSON body. The body is restored so
// downstream handlers can decode it again.
func FromBody(field string) TokenSource {
	return func(r *http.Request) string {
		if r.Body == nil || r.Body == http.NoBody {
			return ""
		}
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(raw))
		if err != nil || len(bytes.TrimSpace(raw)) == 0 {
			return ""
		}

		var fields map[string]json.RawMessage
		if json.Unmarshal(raw, &fields) != nil {
			return ""
		}
		var tok string
		if json.Unmarshal(fields[field], &tok) != nil {
			return ""
		}
		return strings.TrimSpace(tok)
	}
}

func FromCookie(name string) TokenSource {
	return func(r *http.Request) string {
		c, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(c.Value)
	}
}

// FromBearer reads "Authorization: Bearer <token>". Other schemes yield "".
func FromBearer() TokenSource {
	return func(r *http.Request) string {
		h := r.Header.Get("Authorization")
		scheme, tok, ok := strings.Cut(strings.TrimSpace(h), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(tok)
	}
}
