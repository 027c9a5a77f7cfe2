package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cacheadapter "github.com/pankaj085/lotuslynx/internal/adapter/cache"
	"github.com/pankaj085/lotuslynx/internal/adapter/payment"
	"github.com/pankaj085/lotuslynx/internal/adapter/storage"
	"github.com/pankaj085/lotuslynx/internal/bootstrap"
	"github.com/pankaj085/lotuslynx/internal/config"
	httptransport "github.com/pankaj085/lotuslynx/internal/http"
	"github.com/pankaj085/lotuslynx/internal/http/handler"
	"github.com/pankaj085/lotuslynx/internal/http/middleware"
	"github.com/pankaj085/lotuslynx/internal/password"
	"github.com/pankaj085/lotuslynx/internal/repository"
	"github.com/pankaj085/lotuslynx/internal/server"
	"github.com/pankaj085/lotuslynx/internal/service"
	"github.com/pankaj085/lotuslynx/internal/telemetry"
	"github.com/pankaj085/lotuslynx/internal/token"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newUserRepository,
			newProductRepository,
			newHasher,
			newTokenCodec,
			newProductCache,
			newImageStore,
			newPaymentProvider,
			newRateLimiter,
			newAuthService,
			newCatalogService,
			handler.NewAuthHandler,
			handler.NewCatalogHandler,
			newAuthMiddleware,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, bootstrap.EnsureAdmin, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	node, err := snowflake.NewNode(1)
	return node, err
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return repository.NewPostgresUserRepo(pool)
}

func newProductRepository(pool *pgxpool.Pool) repository.ProductRepository {
	return repository.NewPostgresProductRepo(pool)
}

func newHasher(cfg config.Config) password.Hasher {
	return password.NewHasher(cfg.BcryptCost)
}

func newTokenCodec(cfg config.Config) (*token.Codec, error) {
	return token.NewCodec([]byte(cfg.SecretKey), cfg.Algorithm, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
}

// newProductCache connects to redis when REDIS_ADDR is set; otherwise the
// catalog runs uncached.
func newProductCache(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (cacheadapter.ProductCache, error) {
	if cfg.RedisAddr == "" {
		logger.Info("product cache disabled")
		return cacheadapter.NopProductCache{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return cacheadapter.NewRedisProductCache(client, cfg.ProductCacheTTL), nil
}

func newImageStore(cfg config.Config) (storage.ImageStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return storage.NewMinioStore(ctx, cfg)
}

func newPaymentProvider(cfg config.Config) payment.Provider {
	return payment.NewStripeClient(cfg.StripeSecretKey, nil)
}

func newRateLimiter(cfg config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newAuthService(users repository.UserRepository, hasher password.Hasher, codec *token.Codec, node *snowflake.Node, logger *zap.Logger) *service.AuthService {
	return service.NewAuthService(users, hasher, codec, node, logger)
}

func newCatalogService(products repository.ProductRepository, images storage.ImageStore, payments payment.Provider, productCache cacheadapter.ProductCache, node *snowflake.Node, cfg config.Config, logger *zap.Logger) *service.CatalogService {
	return service.NewCatalogService(products, images, payments, productCache, node, cfg.StripeCurrency, logger)
}

func newAuthMiddleware(authService *service.AuthService, logger *zap.Logger) *middleware.Auth {
	return &middleware.Auth{AuthService: authService, Logger: logger}
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
