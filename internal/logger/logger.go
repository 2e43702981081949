package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/authlane/auth-server/internal/pkg/reqctx"
)

const serviceName = "auth-server"

var Logger zerolog.Logger = zerolog.Nop()

// Options picks the level and output format of the process logger.
type Options struct {
	Level  zerolog.Level
	Format string // "json" or "console"
}

// OptionsFromEnv reads LOG_LEVEL (default info; unknown values fall back to
// info) and LOG_FORMAT (default console).
func OptionsFromEnv() Options {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	format := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if format != "json" {
		format = "console"
	}
	return Options{Level: level, Format: format}
}

// New builds a logger stamped with the service name.
func New(w io.Writer, o Options) zerolog.Logger {
	if o.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).
		Level(o.Level).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

func Init() {
	InitWithWriter(os.Stdout)
}

// InitWithWriter sets the package and zerolog global loggers from the env.
func InitWithWriter(w io.Writer) {
	Logger = New(w, OptionsFromEnv())
	zlog.Logger = Logger
}

// WithCtx returns the package logger tagged with the request id in ctx.
func WithCtx(ctx context.Context) *zerolog.Logger {
	l := Logger
	if rid := reqctx.RequestID(ctx); rid != "" {
		l = l.With().Str("request_id", rid).Logger()
	}
	return &l
}
