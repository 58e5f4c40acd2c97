package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kenyilewis/imgtask/internal/config"
	"github.com/kenyilewis/imgtask/internal/platform/mongo"
	"github.com/kenyilewis/imgtask/internal/platform/postgres"
	"github.com/kenyilewis/imgtask/internal/platform/redis"
	"github.com/kenyilewis/imgtask/internal/store"
)

// backend holds the stores of the configured database driver and the
// function that releases its connection.
type backend struct {
	driver string
	tasks  store.TaskStore
	images store.ImageStore
	close  func() error
}

// openBackend connects to the database selected by cfg.Driver.
func openBackend(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*backend, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	case config.DriverMongo:
		client, err := mongo.Connect(ctx, cfg.URL, cfg.Name, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		return &backend{
			driver: cfg.Driver,
			tasks:  client.TaskStore(),
			images: client.ImageStore(),
			close:  client.Close,
		}, nil
	case config.DriverRedis:
		client, err := redis.Connect(ctx, cfg.URL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return &backend{
			driver: cfg.Driver,
			tasks:  client.TaskStore(),
			images: client.ImageStore(),
			close:  client.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*backend, error) {
	db, err := postgres.Open(ctx, cfg.URL, logger)
	if err != nil {
		return nil, err
	}

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, db, logger); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	return &backend{
		driver: cfg.Driver,
		tasks:  postgres.NewPostgresTaskStore(db, logger),
		images: postgres.NewPostgresImageStore(db, logger),
		close:  db.Close,
	}, nil
}
