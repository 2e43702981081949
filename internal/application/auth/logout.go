package auth

import (
	"context"

	"github.com/authlane/auth-server/internal/domain"
)

// Logout verifies token and clears the stored refresh token of its subject.
// Any validly signed, unexpired token minted by this service is accepted.
// Outstanding access tokens stay valid until they expire.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrTokenMissing()
	}

	claims, err := s.signer.Verify(token)
	if err != nil {
		return domain.ErrLogoutTokenInvalid()
	}

	err = s.users.UpdateFields(ctx, claims.UserID, domain.ClearRefreshToken())
	switch {
	case domain.Is(err, "user_not_found"):
		// Token outlived its user; nothing left to clear.
		return nil
	case err != nil:
		return err
	}

	s.audit.LoggedOut(ctx, claims.UserID)
	s.publish(ctx, "user.logged_out", func(ctx context.Context) error {
		return s.pub.PublishUserLoggedOut(ctx, UserLoggedOutEvent{
			UserID:     claims.UserID,
			OccurredAt: s.now().UTC(),
		})
	})
	return nil
}
