package memory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/authlane/auth-server/internal/application/auth"
)

// NoopPublisher logs events instead of sending them anywhere.
type NoopPublisher struct {
	log zerolog.Logger
}

func NewNoopPublisher(l zerolog.Logger) *NoopPublisher {
	return &NoopPublisher{log: l.With().Str("component", "noop_publisher").Logger()}
}

func (p *NoopPublisher) PublishUserRegistered(ctx context.Context, evt auth.UserRegisteredEvent) error {
	p.log.Debug().Str("user_id", evt.UserID).Msg("user.registered")
	return nil
}

func (p *NoopPublisher) PublishUserLoggedIn(ctx context.Context, evt auth.UserLoggedInEvent) error {
	p.log.Debug().Str("user_id", evt.UserID).Msg("user.logged_in")
	return nil
}

func (p *NoopPublisher) PublishUserLoggedOut(ctx context.Context, evt auth.UserLoggedOutEvent) error {
	p.log.Debug().Str("user_id", evt.UserID).Msg("user.logged_out")
	return nil
}
