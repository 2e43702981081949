package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/authlane/auth-server/internal/application/auth"
	"github.com/authlane/auth-server/internal/audit"
	"github.com/authlane/auth-server/internal/config"
	"github.com/authlane/auth-server/internal/infrastructure/db/mongodb"
	"github.com/authlane/auth-server/internal/infrastructure/db/postgres"
	"github.com/authlane/auth-server/internal/infrastructure/memory"
	"github.com/authlane/auth-server/internal/infrastructure/messaging/rabbitmq"
	"github.com/authlane/auth-server/internal/infrastructure/redis"
	"github.com/authlane/auth-server/internal/infrastructure/security"
	"github.com/authlane/auth-server/internal/logger"
	http_handlers "github.com/authlane/auth-server/internal/transport/http/handlers"
	"github.com/authlane/auth-server/internal/transport/http/middleware"
	"github.com/authlane/auth-server/internal/transport/http/response"
	"github.com/authlane/auth-server/internal/transport/http/router"
)

const startupTimeout = 10 * time.Second

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

// UserStore is a user repository that can report its own health.
type UserStore interface {
	auth.UserRepo
	Ping(ctx context.Context) error
}

type Publisher interface {
	auth.EventPublisher
	Close() error
}

type Deps struct {
	LoadConfig func() (*config.Config, error)

	// OpenStore returns the store selected by cfg.StoreDriver and a cleanup.
	OpenStore func(ctx context.Context, cfg *config.Config) (UserStore, func(), error)

	NewRedis func(redis.Options) *redis.Client

	NewPublisher func(url, exchange string) (Publisher, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	lg := logger.Logger

	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	// 1) store
	store, closeStore, err := deps.OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanupFns := []func(){closeStore}
	lg.Info().Str("driver", cfg.StoreDriver).Msg("user store ready")

	// 2) redis cache (best-effort)
	var users auth.UserRepo = store
	if cfg.RedisAddr != "" && deps.NewRedis != nil {
		c := deps.NewRedis(redis.Options{
			Addr:        cfg.RedisAddr,
			Password:    cfg.RedisPassword,
			DB:          cfg.RedisDB,
			PingTimeout: cfg.RedisPingTimeout,
		})
		if err := c.Ping(ctx); err != nil {
			lg.Warn().Err(err).Msg("redis unavailable; user cache disabled")
			_ = c.Close()
		} else {
			lg.Info().Msg("redis connected")
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
			users = redis.NewCachedUserRepo(store, c, cfg.UserCacheTTL, lg)
		}
	}

	// 3) publisher
	var pub auth.EventPublisher = memory.NewNoopPublisher(lg)
	if cfg.RabbitURL != "" {
		p, err := deps.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		switch {
		case err == nil:
			pub = p
			cleanupFns = append(cleanupFns, func() { _ = p.Close() })
		case cfg.IsDev():
			lg.Warn().Err(err).Msg("rabbitmq unavailable; using noop publisher")
		default:
			runCleanup(cleanupFns)
			return nil, nil, fmt.Errorf("rabbitmq: %w", err)
		}
	}

	// 4) security
	signer, err := security.NewJWTSigner(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTIssuer)
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}
	hasher := security.NewBcryptHasher(cfg.BcryptCost)

	// 5) service
	authSvc := auth.NewService(users, hasher, signer, pub, auth.Config{
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}).
		WithAudit(audit.New(lg)).
		WithLogger(lg)

	// 6) handlers + router
	cookies := security.CookiePolicy{TrustProxy: cfg.TrustProxyHeaders}

	mux, err := deps.NewRouter(router.Deps{
		Health: http_handlers.NewHealthHandler(store),
		Auth:   http_handlers.NewAuthHandler(authSvc, cookies),
		AuthMW: middleware.Auth(authSvc, response.WriteError),
	})
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 7) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return srv, cleanup, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		OpenStore:  openStore,
		NewRedis:   redis.NewFromOptions,
		NewPublisher: func(url, exchange string) (Publisher, error) {
			return rabbitmq.NewPublisher(url, exchange, logger.Logger)
		},
		NewRouter: router.New,
	}
}

func openStore(ctx context.Context, cfg *config.Config) (UserStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }

		repo := mongodb.NewUserRepo(client.Database(cfg.MongoDatabase))
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return repo, closeFn, nil

	case config.DriverPostgres:
		db, err := config.NewDB(cfg.DBAddr, cfg.DBDebug, logger.Logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = db.Close() }

		if err := postgres.Migrate(ctx, db); err != nil {
			closeFn()
			return nil, nil, err
		}
		return postgres.NewUserRepo(db), closeFn, nil

	case config.DriverMemory:
		return memory.NewUserRepo(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
