package auth

import (
	"context"
	"time"

	"github.com/authlane/auth-server/internal/domain"
)

// IssueSession mints an access/refresh token pair for userID and records the
// refresh token on the user. A previously stored refresh token is replaced.
//
// Every failure collapses into domain.ErrTokenGeneration; the cause is only
// logged.
func (s *Service) IssueSession(ctx context.Context, userID string) (Session, error) {
	sess, err := s.issueSession(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("session issue failed")
		return Session{}, domain.ErrTokenGeneration()
	}
	return sess, nil
}

func (s *Service) issueSession(ctx context.Context, userID string) (Session, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}

	access, err := s.signer.Sign(u.ID, s.accessTTL)
	if err != nil {
		return Session{}, err
	}
	refresh, err := s.signer.Sign(u.ID, s.refreshTTL)
	if err != nil {
		return Session{}, err
	}

	if err := s.users.UpdateFields(ctx, u.ID, domain.SetRefreshToken(refresh)); err != nil {
		return Session{}, err
	}

	return Session{
		AccessToken:           access,
		RefreshToken:          refresh,
		AccessTokenExpiresIn:  s.accessTTL.Milliseconds(),
		RefreshTokenExpiresIn: s.refreshTTL.Milliseconds(),
	}, nil
}

// AccessTTL and RefreshTTL expose the configured validity windows so the
// transport layer can size cookies.
func (s *Service) AccessTTL() time.Duration  { return s.accessTTL }
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }
