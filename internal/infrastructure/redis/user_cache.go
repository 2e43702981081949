package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/authlane/auth-server/internal/application/auth"
	"github.com/authlane/auth-server/internal/domain"
)

const DefaultUserCacheTTL = 5 * time.Minute

// CachedUserRepo decorates an auth.UserRepo with a Redis read-through cache
// for lookups by id.
//   - Read path (GetByID): Redis -> DB fallback -> Redis set
//   - Write path (UpdateFields): DB -> Redis DEL (best effort)
//
// Only the sanitized record is cached, so a GetByID served from cache never
// carries the password hash or refresh token. Lookups by email always go to
// the inner repo.
type CachedUserRepo struct {
	inner   auth.UserRepo
	rdb     *goredis.Client
	ttl     time.Duration
	keyPref string
	log     zerolog.Logger
}

func NewCachedUserRepo(inner auth.UserRepo, client *Client, ttl time.Duration, l zerolog.Logger) *CachedUserRepo {
	var rdb *goredis.Client
	if client != nil {
		rdb = client.rdb
	}
	if ttl <= 0 {
		ttl = DefaultUserCacheTTL
	}
	return &CachedUserRepo{
		inner:   inner,
		rdb:     rdb,
		ttl:     ttl,
		keyPref: "user:",
		log:     l.With().Str("component", "user_cache").Logger(),
	}
}

// cachedUser is the cache payload.
type cachedUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *CachedUserRepo) key(userID string) string {
	return c.keyPref + userID
}

// GetByID always returns the sanitized user, whether or not it came from
// the cache.
func (c *CachedUserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	// 1) Try Redis
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, c.key(id)).Bytes()
		switch {
		case err == nil:
			var cu cachedUser
			if jerr := json.Unmarshal(raw, &cu); jerr == nil {
				return domain.User{
					ID:        cu.ID,
					Username:  cu.Username,
					Email:     cu.Email,
					CreatedAt: cu.CreatedAt,
					UpdatedAt: cu.UpdatedAt,
				}, nil
			}
			// corrupt entry -> fall back to DB
		case !errors.Is(err, goredis.Nil):
			// redis error -> fall back to DB (do NOT fail auth)
			c.log.Warn().Err(err).Msg("user cache read failed")
		}
	}

	// 2) DB source of truth
	u, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	u = u.Sanitized()

	// 3) Best-effort cache fill
	if c.rdb != nil {
		payload, _ := json.Marshal(cachedUser{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		})
		if err := c.rdb.Set(ctx, c.key(id), payload, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Msg("user cache fill failed")
		}
	}

	return u, nil
}

func (c *CachedUserRepo) UpdateFields(ctx context.Context, id string, patch domain.UserPatch) error {
	// 1) DB write
	if err := c.inner.UpdateFields(ctx, id, patch); err != nil {
		return err
	}

	// 2) Best-effort invalidation
	if c.rdb != nil {
		if err := c.rdb.Del(ctx, c.key(id)).Err(); err != nil {
			c.log.Warn().Err(err).Msg("user cache invalidate failed")
		}
	}
	return nil
}

/*
Below: delegate the remaining auth.UserRepo methods to inner.
*/

func (c *CachedUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return c.inner.GetByEmail(ctx, email)
}

func (c *CachedUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	return c.inner.Create(ctx, u)
}
