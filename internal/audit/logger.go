package audit

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/authlane/auth-server/internal/pkg/reqctx"
)

// Logger provides structured audit logging for auth business events.
// It implements auth.AuditSink.
type Logger struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

func (l *Logger) Registered(ctx context.Context, userID, email string) {
	l.log.Info().
		Str("action", "register").
		Str("user_id", userID).
		Str("email", maskEmail(email)).
		Str("request_id", reqctx.RequestID(ctx)).
		Msg("User registered")
}

func (l *Logger) LoginSucceeded(ctx context.Context, userID, email string) {
	l.log.Info().
		Str("action", "login_success").
		Str("user_id", userID).
		Str("email", maskEmail(email)).
		Str("request_id", reqctx.RequestID(ctx)).
		Msg("User logged in successfully")
}

func (l *Logger) LoginFailed(ctx context.Context, email, reason string) {
	l.log.Warn().
		Str("action", "login_failed").
		Str("email", maskEmail(email)).
		Str("reason", reason).
		Str("request_id", reqctx.RequestID(ctx)).
		Msg("Login attempt failed")
}

func (l *Logger) LoggedOut(ctx context.Context, userID string) {
	l.log.Info().
		Str("action", "logout").
		Str("user_id", userID).
		Str("request_id", reqctx.RequestID(ctx)).
		Msg("User logged out")
}

// maskEmail keeps the first two characters of the local part and the domain.
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if len(email) < 5 || at < 0 {
		return "***"
	}
	if at < 2 {
		return email[:1] + "***" + email[at:]
	}
	return email[:2] + "***" + email[at:]
}
