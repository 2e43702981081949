package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/authlane/auth-server/internal/domain"
)

func newUserID() string { return uuid.NewString() }

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates a user and returns its sanitized record.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	email := domain.NormalizeEmail(in.Email)

	switch {
	case in.Username == "":
		return domain.User{}, domain.ErrMissingField("username")
	case email == "":
		return domain.User{}, domain.ErrMissingField("email")
	case in.Password == "":
		return domain.User{}, domain.ErrMissingField("password")
	}
	if !strings.Contains(email, "@") {
		return domain.User{}, domain.ErrInvalidField("email", "invalid format")
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.User{}, domain.ErrEmailAlreadyExists()
	case !domain.Is(err, "user_not_found"):
		return domain.User{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return domain.User{}, de
		}
		return domain.User{}, domain.ErrHashFailed(err)
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, domain.User{
		ID:           s.newID(),
		Username:     in.Username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return domain.User{}, err
	}

	s.audit.Registered(ctx, created.ID, created.Email)
	s.publish(ctx, "user.registered", func(ctx context.Context) error {
		return s.pub.PublishUserRegistered(ctx, UserRegisteredEvent{
			UserID:     created.ID,
			Username:   created.Username,
			Email:      created.Email,
			OccurredAt: now,
		})
	})

	return created.Sanitized(), nil
}
