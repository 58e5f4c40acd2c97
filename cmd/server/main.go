// Package main implements the entry point for the imgtask server, which
// accepts image processing tasks over HTTP and produces resized variants in
// the background.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kenyilewis/imgtask/internal/config"
	"github.com/kenyilewis/imgtask/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("imgtask server: %v", err)
	}
}

// run loads configuration, wires the application and serves until SIGINT
// or SIGTERM.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Bool("s3_enabled", cfg.S3.Enabled))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg.Database, l)
	if err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, l, b)
	if err != nil {
		if closeErr := b.close(); closeErr != nil {
			l.Error("failed to close database", slog.String("error", closeErr.Error()))
		}
		return err
	}

	return app.Run(ctx)
}
