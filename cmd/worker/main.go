package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/cache"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/config"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/database"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/log"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/queue"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/repository"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/service"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "kingdomkids-worker")

	if cfg.Storage.Driver != config.StorageDriverPostgres || cfg.Redis.Addr == "" {
		logger.Fatal().Msg("worker requires the postgres storage driver and a redis address")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	alerts := service.NewAlertService(repository.NewStore(pool), log.Component(logger, "alerts"))
	processor := tasks.NewProcessor(alerts, log.Component(logger, "processor"))
	consumer := queue.NewConsumer(client, queue.Options{
		Stream:        cfg.Worker.Stream,
		Group:         cfg.Worker.Group,
		Consumer:      cfg.Worker.Consumer,
		BlockTimeout:  cfg.Worker.BlockTimeout,
		ClaimInterval: cfg.Worker.ClaimInterval,
		ClaimIdle:     cfg.Worker.ClaimIdle,
	}, log.Component(logger, "consumer"), processor)

	logger.Info().Str("stream", cfg.Worker.Stream).Str("group", cfg.Worker.Group).Msg("worker started")
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("consumer stopped unexpectedly")
		stop()
		os.Exit(1)
	}
	logger.Info().Msg("worker exited cleanly")
}
