package security

import (
	"net/http"
	"strings"
	"time"
)

const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
)

// CookiePolicy decides the attributes of session cookies.
// Secure is set when the request arrived over TLS, or when TrustProxy is on
// and a proxy reported https via X-Forwarded-Proto.
type CookiePolicy struct {
	TrustProxy bool
}

func (p CookiePolicy) IsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if !p.TrustProxy {
		return false
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	// first hop wins: "https, http"
	if i := strings.IndexByte(proto, ','); i >= 0 {
		proto = proto[:i]
	}
	return strings.EqualFold(strings.TrimSpace(proto), "https")
}

func (p CookiePolicy) cookie(r *http.Request, name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   p.IsSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

// SetSessionCookies writes both token cookies, each living as long as its token.
func (p CookiePolicy) SetSessionCookies(w http.ResponseWriter, r *http.Request, access string, accessTTL time.Duration, refresh string, refreshTTL time.Duration) {
	http.SetCookie(w, p.cookie(r, AccessCookieName, access, int(accessTTL.Seconds())))
	http.SetCookie(w, p.cookie(r, RefreshCookieName, refresh, int(refreshTTL.Seconds())))
}

// ClearSessionCookies expires both token cookies with the same attributes
// they were set with.
func (p CookiePolicy) ClearSessionCookies(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, p.cookie(r, AccessCookieName, "", -1))
	http.SetCookie(w, p.cookie(r, RefreshCookieName, "", -1))
}
