package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultPingTimeout = 2 * time.Second

// Options selects the cache server. A zero PingTimeout means 2s.
type Options struct {
	Addr        string
	Password    string
	DB          int
	PingTimeout time.Duration
}

// Client is the cache connection shared by CachedUserRepo.
type Client struct {
	rdb         *goredis.Client
	pingTimeout time.Duration
}

func NewFromOptions(o Options) *Client {
	if o.PingTimeout <= 0 {
		o.PingTimeout = defaultPingTimeout
	}
	return &Client{
		rdb: goredis.NewClient(&goredis.Options{
			Addr:        o.Addr,
			Password:    o.Password,
			DB:          o.DB,
			DialTimeout: o.PingTimeout,

			// let request deadlines cut cache calls short
			ContextTimeoutEnabled: true,
		}),
		pingTimeout: o.PingTimeout,
	}
}

// Ping reports whether the server answers within the configured timeout.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.pingTimeout)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
