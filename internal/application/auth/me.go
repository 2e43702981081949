package auth

import (
	"context"

	"github.com/authlane/auth-server/internal/domain"
)

// GetUser returns the sanitized record for userID.
func (s *Service) GetUser(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	return u.Sanitized(), nil
}
