package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/kenyilewis/imgtask/internal/config"
	"github.com/kenyilewis/imgtask/internal/imagesource"
	"github.com/kenyilewis/imgtask/internal/platform/s3"
	"github.com/kenyilewis/imgtask/internal/redact"
	"github.com/kenyilewis/imgtask/internal/service"
	"github.com/kenyilewis/imgtask/internal/task"
	"github.com/kenyilewis/imgtask/internal/transform"
)

// application holds the shared dependencies of the server so they can be
// released together on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	backend     *backend
	resolver    *imagesource.Resolver
	taskService service.TaskService
	dispatcher  *task.Dispatcher
}

// newApplication wires the service layer on top of an opened backend.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, b *backend) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		backend: b,
	}

	client := cleanhttp.DefaultPooledClient()
	client.Timeout = cfg.Download.Timeout
	app.resolver = imagesource.NewResolver(cfg.Storage.TempDir, client, logger)

	var opts []transform.Option
	if cfg.S3.Enabled {
		mirror, err := s3.NewMirror(ctx, cfg.S3, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize s3 mirror: %w", err)
		}
		opts = append(opts, transform.WithSink(mirror))
		logger.Info("s3 mirror enabled", slog.String("bucket", cfg.S3.Bucket))
	}
	pipeline := transform.NewPipeline(cfg.Storage.OutputDir, logger, opts...)

	var err error
	app.taskService, err = service.NewTaskService(b.tasks, b.images, app.resolver, pipeline, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.dispatcher = task.NewDispatcher(logger)
	app.dispatcher.SetErrorHandler(func(job task.Job, err error) {
		logger.Warn("background job failed",
			slog.String("job_id", job.ID()),
			slog.String("job_type", job.Type()),
			slog.String("error", redact.Error(err)))
	})

	logger.Info("application initialized",
		slog.String("database_driver", b.driver),
		slog.String("output_dir", cfg.Storage.OutputDir),
		slog.String("temp_dir", cfg.Storage.TempDir))
	return app, nil
}

// cleanup waits for running jobs and closes the database connection.
func (app *application) cleanup(ctx context.Context) error {
	var firstErr error

	if err := app.dispatcher.Stop(ctx); err != nil {
		app.logger.Error("background jobs did not finish", slog.String("error", err.Error()))
		firstErr = err
	}

	if app.backend != nil && app.backend.close != nil {
		if err := app.backend.close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	app.logger.Info("application shutdown completed")
	return firstErr
}
