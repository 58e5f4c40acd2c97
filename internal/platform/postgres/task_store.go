package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kenyilewis/imgtask/internal/domain"
	"github.com/kenyilewis/imgtask/internal/platform/logger"
	"github.com/kenyilewis/imgtask/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// WithTx returns a store that runs its queries inside tx.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) *PostgresTaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

// Create implements store.TaskStore.Create.
// It assigns a new UUID and returns the persisted task.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	images, err := json.Marshal(nonNilImages(task.Images))
	if err != nil {
		return nil, fmt.Errorf("failed to encode task images: %w", err)
	}

	created := *task
	created.ID = uuid.New().String()
	created.Images = nonNilImages(task.Images)

	query := `
		INSERT INTO tasks (id, status, price, original_path, images, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
	`
	_, err = s.db.ExecContext(ctx, query,
		created.ID,
		string(created.Status),
		created.Price.String(),
		created.OriginalPath,
		images,
		created.Error,
		created.CreatedAt,
		created.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("task created",
		slog.String("task_id", created.ID),
		slog.String("status", string(created.Status)))
	return &created, nil
}

// FindByID implements store.TaskStore.FindByID.
// Malformed IDs are reported as store.ErrTaskNotFound.
func (s *PostgresTaskStore) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	taskID, err := uuid.Parse(id)
	if err != nil {
		return nil, store.ErrTaskNotFound
	}

	query := `
		SELECT id, status, price, original_path, images, error_message, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`

	var (
		task      domain.Task
		status    string
		price     string
		images    []byte
		errorText sql.NullString
	)
	err = s.db.QueryRowContext(ctx, query, taskID).Scan(
		&task.ID,
		&status,
		&price,
		&task.OriginalPath,
		&images,
		&errorText,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to query task", slog.String("task_id", id), slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	task.Status = domain.TaskStatus(status)
	task.Error = errorText.String
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()

	if task.Price, err = domain.ParsePrice(price); err != nil {
		return nil, fmt.Errorf("failed to decode price for task %s: %w", id, err)
	}

	task.Images = []domain.TaskImage{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &task.Images); err != nil {
			return nil, fmt.Errorf("failed to decode images for task %s: %w", id, err)
		}
	}

	return &task, nil
}

// UpdateStatus implements store.TaskStore.UpdateStatus.
// An empty errMsg keeps the stored error message. updated_at never moves backwards.
func (s *PostgresTaskStore) UpdateStatus(
	ctx context.Context,
	id string,
	status domain.TaskStatus,
	errMsg string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.Valid() {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidTaskStatus)
	}

	taskID, err := uuid.Parse(id)
	if err != nil {
		return store.ErrTaskNotFound
	}

	query := `
		UPDATE tasks
		SET status = $1,
			error_message = COALESCE(NULLIF($2, ''), error_message),
			updated_at = GREATEST(updated_at, $3)
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, string(status), errMsg, time.Now().UTC(), taskID)
	if err != nil {
		log.Error("failed to update task status",
			slog.String("task_id", id),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Debug("task status updated",
		slog.String("task_id", id),
		slog.String("status", string(status)))
	return nil
}

// AddImages implements store.TaskStore.AddImages.
// Images and the completed status are written by a single UPDATE.
func (s *PostgresTaskStore) AddImages(ctx context.Context, id string, images []domain.TaskImage) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	taskID, err := uuid.Parse(id)
	if err != nil {
		return store.ErrTaskNotFound
	}

	encoded, err := json.Marshal(nonNilImages(images))
	if err != nil {
		return fmt.Errorf("failed to encode task images: %w", err)
	}

	query := `
		UPDATE tasks
		SET images = $1,
			status = $2,
			updated_at = GREATEST(updated_at, $3)
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query,
		encoded,
		string(domain.TaskStatusCompleted),
		time.Now().UTC(),
		taskID,
	)
	if err != nil {
		log.Error("failed to add images to task",
			slog.String("task_id", id),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Debug("task completed",
		slog.String("task_id", id),
		slog.Int("image_count", len(images)))
	return nil
}

func nonNilImages(images []domain.TaskImage) []domain.TaskImage {
	if images == nil {
		return []domain.TaskImage{}
	}
	return images
}
