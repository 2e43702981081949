package auth

import (
	"context"

	"github.com/authlane/auth-server/internal/domain"
)

// Login authenticates a user by email and password and issues a session.
// Unlike a non-enumerating flow, an unknown email is reported as not found.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = domain.NormalizeEmail(email)

	if email == "" {
		return LoginResult{}, domain.ErrMissingField("email")
	}
	if password == "" {
		return LoginResult{}, domain.ErrMissingField("password")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.Is(err, "user_not_found") {
			s.audit.LoginFailed(ctx, email, "user_not_found")
		}
		return LoginResult{}, err
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		s.audit.LoginFailed(ctx, email, "invalid_credentials")
		return LoginResult{}, domain.ErrInvalidCredentials()
	}

	sess, err := s.IssueSession(ctx, u.ID)
	if err != nil {
		return LoginResult{}, err
	}

	fresh, err := s.users.GetByID(ctx, u.ID)
	if err != nil {
		return LoginResult{}, err
	}

	s.audit.LoginSucceeded(ctx, u.ID, u.Email)
	s.publish(ctx, "user.logged_in", func(ctx context.Context) error {
		return s.pub.PublishUserLoggedIn(ctx, UserLoggedInEvent{
			UserID:     u.ID,
			OccurredAt: s.now().UTC(),
		})
	})

	return LoginResult{User: fresh.Sanitized(), Session: sess}, nil
}
