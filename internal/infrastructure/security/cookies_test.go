package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookieByName(t *testing.T, rr *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("expected %s cookie", name)
	return nil
}

func TestCookiePolicy_IsSecure(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		trust  bool
		tls    bool
		header string
		want   bool
	}{
		{"plain http", true, false, "", false},
		{"direct tls", false, true, "", true},
		{"proxy https trusted", true, false, "https", true},
		{"proxy https chain", true, false, "HTTPS, http", true},
		{"proxy http", true, false, "http", false},
		{"proxy https untrusted", false, false, "https", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil)
			if tc.tls {
				r.TLS = &tls.ConnectionState{}
			}
			if tc.header != "" {
				r.Header.Set("X-Forwarded-Proto", tc.header)
			}
			assert.Equal(t, tc.want, CookiePolicy{TrustProxy: tc.trust}.IsSecure(r))
		})
	}
}

func TestSetSessionCookies_Attributes(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	rr := httptest.NewRecorder()

	CookiePolicy{TrustProxy: true}.SetSessionCookies(rr, r, "acc", time.Hour, "ref", 7*24*time.Hour)

	acc := cookieByName(t, rr, AccessCookieName)
	ref := cookieByName(t, rr, RefreshCookieName)

	assert.Equal(t, "acc", acc.Value)
	assert.Equal(t, "ref", ref.Value)
	assert.Equal(t, 3600, acc.MaxAge)
	assert.Equal(t, 604800, ref.MaxAge)
	for _, c := range []*http.Cookie{acc, ref} {
		assert.Equal(t, "/", c.Path)
		assert.True(t, c.HttpOnly)
		assert.True(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	}
}

func TestClearSessionCookies_ExpiresBoth(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	rr := httptest.NewRecorder()

	CookiePolicy{TrustProxy: true}.ClearSessionCookies(rr, r)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Empty(t, c.Value)
		assert.Equal(t, -1, c.MaxAge)
		assert.Equal(t, "/", c.Path)
		assert.True(t, c.HttpOnly)
		assert.False(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	}
}
