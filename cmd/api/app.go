package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/cache"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/config"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/database"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/events"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/handlers"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/log"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/ports"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/repository"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/repository/memstore"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/security"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/service"
)

// app holds the wired dependencies of the API process.
type app struct {
	store     ports.Store
	pool      *pgxpool.Pool
	redis     *redis.Client
	publisher ports.EventPublisher
	services  handlers.Services
	checks    map[string]handlers.HealthCheck
}

func buildApp(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (*app, error) {
	a := &app{checks: map[string]handlers.HealthCheck{}}

	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		mem := memstore.New()
		mem.SeedLessons(memstore.DefaultLessons()...)
		a.store = mem
		logger.Warn().Msg("using in-memory storage; data is lost on restart")
	default:
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Postgres.AutoMigrate {
			if err := database.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		a.pool = pool
		a.store = repository.NewStore(pool)
		a.checks["database"] = pool.Ping
	}

	var throttle ports.LoginThrottle = memstore.NewThrottle(cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow)
	a.publisher = events.Discard{}
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			a.close(logger)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = client
		a.checks["cache"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }

		throttle = cache.NewLoginThrottle(client,
			cache.NewCircuitBreaker("redis-login-throttle", 5*time.Second, logger),
			cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow)
		a.publisher = events.NewRedisPublisher(client,
			cache.NewCircuitBreaker("redis-ledger-events", 30*time.Second, logger),
			cfg.Worker.Stream)
	}

	hasher := security.NewHasher(security.DefaultArgon2Params)
	tokens := security.NewTokenService(cfg.Security.JWTSecret, cfg.Security.TokenTTL, cfg.Security.Issuer)
	ledger := service.NewLedgerService(a.store, cfg.Ledger, nil, log.Component(logger, "ledger"))

	a.services = handlers.Services{
		Guard:   service.NewGuard(a.store, tokens),
		Auth:    service.NewAuthService(a.store, hasher, tokens, throttle, log.Component(logger, "auth")),
		Family:  service.NewFamilyService(a.store, hasher, cfg.Ledger, log.Component(logger, "family")),
		Ledger:  ledger,
		Rewards: service.NewRewardService(a.store, ledger, a.publisher, log.Component(logger, "rewards")),
		Alerts:  service.NewAlertService(a.store, log.Component(logger, "alerts")),
	}
	return a, nil
}

func (a *app) close(logger zerolog.Logger) {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
