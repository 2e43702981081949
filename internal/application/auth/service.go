package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/authlane/auth-server/internal/domain"
)

const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

type Service struct {
	users  UserRepo
	hasher PasswordHasher
	signer TokenSigner
	pub    EventPublisher
	audit  AuditSink
	log    zerolog.Logger

	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	newID      func() string
}

type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewService(
	users UserRepo,
	hasher PasswordHasher,
	signer TokenSigner,
	pub EventPublisher,
	cfg Config,
) *Service {
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Service{
		users:  users,
		hasher: hasher,
		signer: signer,
		pub:    pub,
		audit:  nopAudit{},
		log:    zerolog.Nop(),

		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
		newID:      newUserID,
	}
}

func (s *Service) WithAudit(a AuditSink) *Service {
	if a != nil {
		s.audit = a
	}
	return s
}

func (s *Service) WithLogger(l zerolog.Logger) *Service {
	s.log = l
	return s
}

// Session is the token pair minted at login.
// Expiry durations are expressed in milliseconds.
type Session struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresIn  int64
	RefreshTokenExpiresIn int64
}

type LoginResult struct {
	User    domain.User // sanitized
	Session Session
}

// VerifyToken checks signature and expiry of any token minted by this service.
func (s *Service) VerifyToken(token string) (TokenClaims, error) {
	return s.signer.Verify(token)
}

// publish runs fn and logs (never returns) a failure.
func (s *Service) publish(ctx context.Context, event string, fn func(context.Context) error) {
	if s.pub == nil {
		return
	}
	if err := fn(ctx); err != nil {
		s.log.Warn().Err(err).Str("event", event).Msg("event publish failed")
	}
}

type nopAudit struct{}

func (nopAudit) Registered(context.Context, string, string)     {}
func (nopAudit) LoginSucceeded(context.Context, string, string) {}
func (nopAudit) LoginFailed(context.Context, string, string)    {}
func (nopAudit) LoggedOut(context.Context, string)              {}
