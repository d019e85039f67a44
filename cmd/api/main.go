package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace_backend/internal/adapters"
	"marketplace_backend/internal/cities"
	"marketplace_backend/internal/geo"
	apphttp "marketplace_backend/internal/http"
	"marketplace_backend/internal/http/router"
	"marketplace_backend/internal/users"
	"marketplace_backend/migrations"
	"marketplace_backend/platform/config"
	"marketplace_backend/platform/db"
	"marketplace_backend/platform/logger"
	"marketplace_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS, ".")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Shared validator instance for dependency injection
	val := validator.New()

	// Geocoder client, optionally wrapped with a Redis response cache
	geocoder := buildGeocoder(cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	citiesModule := cities.NewModule(pool, geocoder, cfg.GeocoderCountry, val, log)
	cityDirectory := adapters.NewCityDirectoryAdapter(citiesModule.Repository())
	usersModule := users.NewModule(pool, cityDirectory, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			citiesModule,
			usersModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// buildGeocoder constructs the place-lookup client; when REDIS_URL is set
// the client is wrapped with a read-through response cache.
func buildGeocoder(cfg *config.Config, log *logger.Logger) geo.Geocoder {
	client := geo.NewClient(cfg, log)

	if !cfg.IsGeocoderCacheEnabled() {
		return client
	}

	opts, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Warn("invalid REDIS_URL; geocoder cache disabled", "error", err)
		return client
	}

	rdb := redis.NewClient(opts)
	log.Info("geocoder cache enabled", "ttl", cfg.GetGeocoderCacheTTL().String())
	return geo.NewCachedGeocoder(client, rdb, cfg.GetGeocoderCacheTTL(), log)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s: %w", name, lastErr)
}
