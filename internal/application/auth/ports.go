package auth

import (
	"context"
	"time"

	"github.com/authlane/auth-server/internal/domain"
)

/*
UserRepo
--------
Persistence port for users.
Only describes WHAT the auth service needs, not HOW it's stored.
Every method is a single atomic operation on one record.
*/
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	// GetByID may omit secret-bearing fields (a cache serves sanitized
	// users); credential checks go through GetByEmail.
	GetByID(ctx context.Context, id string) (domain.User, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)

	// UpdateFields applies a targeted field update without touching the rest
	// of the record.
	UpdateFields(ctx context.Context, id string, patch domain.UserPatch) error
}

/*
PasswordHasher
--------------
Abstracts bcrypt.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error // nil if match
}

/*
TokenSigner
-----------
Signs and verifies session tokens (JWT).
Used by the session issuer, logout and the auth middleware.
*/
type TokenClaims struct {
	UserID   string
	IssuedAt time.Time
	Exp      time.Time
}

type TokenSigner interface {
	Sign(userID string, ttl time.Duration) (string, error)
	Verify(token string) (TokenClaims, error)
}

/*
EventPublisher
--------------
Publishes session lifecycle events to RabbitMQ.
Publishing is best-effort; the service never fails a request on it.
*/
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, evt UserRegisteredEvent) error
	PublishUserLoggedIn(ctx context.Context, evt UserLoggedInEvent) error
	PublishUserLoggedOut(ctx context.Context, evt UserLoggedOutEvent) error
}

type UserRegisteredEvent struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

type UserLoggedInEvent struct {
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type UserLoggedOutEvent struct {
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

/*
AuditSink
---------
Receives security-relevant lifecycle facts for the audit trail.
*/
type AuditSink interface {
	Registered(ctx context.Context, userID, email string)
	LoginSucceeded(ctx context.Context, userID, email string)
	LoginFailed(ctx context.Context, email, reason string)
	LoggedOut(ctx context.Context, userID string)
}
