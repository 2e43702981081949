package response

import (
	"errors"
	"net/http"

	"github.com/authlane/auth-server/internal/domain"
	"github.com/authlane/auth-server/internal/logger"
	"github.com/authlane/auth-server/internal/pkg/reqctx"
)

// ErrorBody is the uniform failure envelope.
type ErrorBody struct {
	Success    bool              `json:"success"`
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	Meta       map[string]string `json:"meta,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
}

// WriteError converts a domain error into a consistent JSON HTTP error response.
// Non-domain errors are treated as internal errors (500) without leaking details.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	message := "internal error"
	var meta map[string]string

	var de *domain.Error
	if errors.As(err, &de) {
		status = StatusFromKind(de.Kind)
		code = de.Code
		message = de.Message
		meta = de.Meta
	}

	if status >= http.StatusInternalServerError {
		logger.WithCtx(r.Context()).Error().Err(err).Str("code", code).Msg("request failed")
	}

	WriteJSON(w, status, ErrorBody{
		Success:    false,
		StatusCode: status,
		Message:    message,
		Code:       code,
		Meta:       meta,
		RequestID:  reqctx.RequestID(r.Context()),
	})
}

// StatusFromKind maps domain error kinds to HTTP status codes.
func StatusFromKind(kind domain.ErrKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindInfrastructure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
