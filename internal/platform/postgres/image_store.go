package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kenyilewis/imgtask/internal/domain"
	"github.com/kenyilewis/imgtask/internal/platform/logger"
	"github.com/kenyilewis/imgtask/internal/store"
)

// PostgresImageStore implements the store.ImageStore interface
// using a PostgreSQL database as the storage backend.
type PostgresImageStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// Ensure PostgresImageStore implements store.ImageStore interface
var _ store.ImageStore = (*PostgresImageStore)(nil)

// NewPostgresImageStore creates a new PostgreSQL implementation of the ImageStore interface.
func NewPostgresImageStore(db store.DBTX, logger *slog.Logger) *PostgresImageStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresImageStore{
		db:     db,
		logger: logger.With(slog.String("component", "image_store")),
	}
}

// WithTx returns a store that runs its queries inside tx.
func (s *PostgresImageStore) WithTx(tx *sql.Tx) *PostgresImageStore {
	return &PostgresImageStore{db: tx, logger: s.logger}
}

// Create implements store.ImageStore.Create.
// Returns store.ErrInvalidEntity if the owning task does not exist.
func (s *PostgresImageStore) Create(ctx context.Context, image *domain.Image) (*domain.Image, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := image.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	taskID, err := uuid.Parse(image.TaskID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed task ID %q", store.ErrInvalidEntity, image.TaskID)
	}

	created := *image
	created.ID = uuid.New().String()

	query := `
		INSERT INTO images (id, task_id, resolution, path, md5, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(ctx, query,
		created.ID,
		taskID,
		created.Resolution,
		created.Path,
		created.MD5,
		created.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("image references unknown task", slog.String("task_id", image.TaskID))
			return nil, fmt.Errorf("%w: task with ID %s not found", store.ErrInvalidEntity, image.TaskID)
		}
		log.Error("failed to create image",
			slog.String("task_id", image.TaskID),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return &created, nil
}

// FindByTaskID implements store.ImageStore.FindByTaskID.
func (s *PostgresImageStore) FindByTaskID(ctx context.Context, taskID string) ([]*domain.Image, error) {
	images := make([]*domain.Image, 0)

	id, err := uuid.Parse(taskID)
	if err != nil {
		return images, nil
	}

	query := `
		SELECT id, task_id, resolution, path, md5, created_at
		FROM images
		WHERE task_id = $1
		ORDER BY seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating image rows: %w", err)
	}

	return images, nil
}

// FindByMD5 implements store.ImageStore.FindByMD5.
func (s *PostgresImageStore) FindByMD5(ctx context.Context, md5 string) (*domain.Image, error) {
	query := `
		SELECT id, task_id, resolution, path, md5, created_at
		FROM images
		WHERE md5 = $1
		ORDER BY seq DESC
		LIMIT 1
	`
	img, err := scanImage(s.db.QueryRowContext(ctx, query, md5))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrImageNotFound
		}
		return nil, err
	}
	return img, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner) (*domain.Image, error) {
	var img domain.Image
	if err := row.Scan(&img.ID, &img.TaskID, &img.Resolution, &img.Path, &img.MD5, &img.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, MapError(err)
	}
	img.CreatedAt = img.CreatedAt.UTC()
	return &img, nil
}
