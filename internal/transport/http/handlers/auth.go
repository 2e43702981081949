package http_handlers

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/authlane/auth-server/internal/application/auth"
	"github.com/authlane/auth-server/internal/domain"
	"github.com/authlane/auth-server/internal/infrastructure/security"
	"github.com/authlane/auth-server/internal/logger"
	"github.com/authlane/auth-server/internal/transport/http/dto"
	"github.com/authlane/auth-server/internal/transport/http/middleware"
	"github.com/authlane/auth-server/internal/transport/http/response"
)

const (
	msgRegistered = "User registered successfully"
	msgLoggedIn   = "User logged in successfully"
	msgLoggedOut  = "User logged out successfully"
	msgCurrent    = "Current user fetched successfully"
)

// logoutTokenSources prefers the refresh credential over the access one.
var logoutTokenSources = []middleware.TokenSource{
	middleware.FromBody("token"),
	middleware.FromCookie(security.RefreshCookieName),
	middleware.FromBearer(),
}

type AuthHandler struct {
	svc     *auth.Service
	cookies security.CookiePolicy
}

func NewAuthHandler(svc *auth.Service, cookies security.CookiePolicy) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: cookies}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, middleware.RegistrationsTotal, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, r, middleware.RegistrationsTotal, err)
		return
	}

	user, err := h.svc.Register(r.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(w, r, middleware.RegistrationsTotal, err)
		return
	}
	middleware.RegistrationsTotal.WithLabelValues("success").Inc()

	logger.WithCtx(r.Context()).Info().
		Str("user_id", user.ID).
		Msg("user_registered")

	response.Created(w, msgRegistered, dto.UserData{User: dto.NewUserView(user)})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, middleware.LoginAttemptsTotal, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, r, middleware.LoginAttemptsTotal, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, middleware.LoginAttemptsTotal, err)
		return
	}
	middleware.LoginAttemptsTotal.WithLabelValues("success").Inc()

	logger.WithCtx(r.Context()).Info().
		Str("user_id", res.User.ID).
		Msg("user_logged_in")

	h.cookies.SetSessionCookies(w, r,
		res.Session.AccessToken, h.svc.AccessTTL(),
		res.Session.RefreshToken, h.svc.RefreshTTL(),
	)
	response.OK(w, msgLoggedIn, dto.NewLoginData(res))
}

// Logout accepts the token from the body, the refresh cookie or a Bearer
// header, clears the stored refresh token and expires both cookies.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	tok := middleware.FirstToken(r, logoutTokenSources...)

	if err := h.svc.Logout(r.Context(), tok); err != nil {
		h.fail(w, r, middleware.LogoutsTotal, err)
		return
	}
	middleware.LogoutsTotal.WithLabelValues("success").Inc()

	h.cookies.ClearSessionCookies(w, r)
	response.OK(w, msgLoggedOut, nil)
}

// Me returns the user behind the verified access token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}

	user, err := h.svc.GetUser(r.Context(), uid)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, msgCurrent, dto.UserData{User: dto.NewUserView(user)})
}

// fail counts the outcome under its error code and writes the error envelope.
func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, counter *prometheus.CounterVec, err error) {
	code := "internal_error"
	var de *domain.Error
	if errors.As(err, &de) {
		code = de.Code
	}
	counter.WithLabelValues(code).Inc()
	response.WriteError(w, r, err)
}
