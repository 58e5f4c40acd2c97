package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationsDir is the directory inside migrationsFS holding the SQL files.
const migrationsDir = "migrations"

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf forwards goose progress messages at info level.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf logs at error level. It does not exit; goose returns the error to
// the caller as well.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, db *sql.DB, log *slog.Logger) error {
	return runGoose(ctx, db, log, func(ctx context.Context) error {
		return goose.UpContext(ctx, db, migrationsDir)
	})
}

// MigrationVersion returns the version of the last applied migration.
func MigrationVersion(ctx context.Context, db *sql.DB, log *slog.Logger) (int64, error) {
	var version int64
	err := runGoose(ctx, db, log, func(ctx context.Context) error {
		v, err := goose.GetDBVersionContext(ctx, db)
		version = v
		return err
	})
	return version, err
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, db *sql.DB, log *slog.Logger) error {
	return runGoose(ctx, db, log, func(ctx context.Context) error {
		return goose.DownContext(ctx, db, migrationsDir)
	})
}

func runGoose(ctx context.Context, db *sql.DB, log *slog.Logger, fn func(context.Context) error) error {
	if log == nil {
		log = slog.Default()
	}

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(&slogGooseLogger{logger: log.With(slog.String("component", "migrations"))})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := fn(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
