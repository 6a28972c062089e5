package main

import (
	"context"
	"fmt"
	"log/slog"

	"activityboard/internal/activity/models"
	activitystore "activityboard/internal/activity/store"
	"activityboard/internal/platform/config"
	"activityboard/internal/platform/postgres"
	"activityboard/internal/platform/redis"
	audit "activityboard/pkg/platform/audit"
	"activityboard/pkg/platform/audit/publishers/kafka"
	"activityboard/pkg/platform/audit/publishers/logging"
	"activityboard/pkg/platform/circuit"
)

// closableStore pairs a store with the release of its connection.
type closableStore struct {
	activitystore.Store
	close func()
}

func buildStore(ctx context.Context, cfg config.Server, log *slog.Logger) (*closableStore, error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return &closableStore{
			Store: activitystore.NewRedis(client.Client),
			close: func() {
				if err := client.Close(); err != nil {
					log.Warn("failed to close redis client", "error", err)
				}
			},
		}, nil
	case config.BackendPostgres:
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		pg := activitystore.NewPostgres(db.DB)
		if err := pg.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &closableStore{
			Store: pg,
			close: func() {
				if err := db.Close(); err != nil {
					log.Warn("failed to close postgres pool", "error", err)
				}
			},
		}, nil
	default:
		return &closableStore{Store: activitystore.NewInMemory(), close: func() {}}, nil
	}
}

func loadSeed(cfg config.Server) ([]*models.Activity, error) {
	if cfg.Store.SeedFile == "" {
		return activitystore.DefaultActivities(), nil
	}
	return activitystore.LoadSeedFile(cfg.Store.SeedFile)
}

func buildAuditor(cfg config.Server, log *slog.Logger) (audit.Publisher, func(), error) {
	brokers := cfg.Audit.KafkaBrokers()
	if len(brokers) == 0 {
		return logging.New(log), func() {}, nil
	}
	breaker := circuit.New("kafka-audit",
		circuit.WithFailureThreshold(cfg.Audit.BreakerThreshold),
		circuit.WithCooldown(cfg.Audit.BreakerCooldown),
	)
	pub, err := kafka.New(brokers, cfg.Audit.KafkaTopic,
		kafka.WithBreaker(breaker),
		kafka.WithProduceTimeout(cfg.Audit.ProduceTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("audit publisher: %w", err)
	}
	return pub, pub.Close, nil
}
