package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kenyilewis/imgtask/internal/domain"
	"github.com/kenyilewis/imgtask/internal/platform/logger"
	"github.com/kenyilewis/imgtask/internal/store"
	"github.com/redis/go-redis/v9"
)

// maxWatchRetries bounds optimistic-lock retries for a single update.
const maxWatchRetries = 10

// RedisTaskStore implements store.TaskStore with one JSON document per task.
type RedisTaskStore struct {
	rdb    *redis.Client
	logger *slog.Logger
}

var _ store.TaskStore = (*RedisTaskStore)(nil)

// NewRedisTaskStore creates a task store on rdb.
func NewRedisTaskStore(rdb *redis.Client, logger *slog.Logger) *RedisTaskStore {
	if rdb == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisTaskStore{
		rdb:    rdb,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Create implements store.TaskStore.Create.
func (s *RedisTaskStore) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	created := *task
	created.ID = uuid.New().String()
	if created.Images == nil {
		created.Images = []domain.TaskImage{}
	}

	data, err := json.Marshal(&created)
	if err != nil {
		return nil, fmt.Errorf("marshal task: %w", err)
	}

	ok, err := s.rdb.SetNX(ctx, taskKey(created.ID), data, 0).Result()
	if err != nil {
		log.Error("failed to create task", slog.String("error", err.Error()))
		return nil, fmt.Errorf("create task: %w", err)
	}
	if !ok {
		return nil, store.ErrDuplicate
	}

	log.Debug("task created", slog.String("task_id", created.ID))
	return &created, nil
}

// FindByID implements store.TaskStore.FindByID.
func (s *RedisTaskStore) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, store.ErrTaskNotFound
	}
	return getTask(ctx, s.rdb, id)
}

// UpdateStatus implements store.TaskStore.UpdateStatus.
func (s *RedisTaskStore) UpdateStatus(
	ctx context.Context,
	id string,
	status domain.TaskStatus,
	errMsg string,
) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidTaskStatus)
	}

	return s.mutate(ctx, id, func(t *domain.Task) {
		t.Status = status
		if errMsg != "" {
			t.Error = errMsg
		}
	})
}

// AddImages implements store.TaskStore.AddImages.
func (s *RedisTaskStore) AddImages(ctx context.Context, id string, images []domain.TaskImage) error {
	return s.mutate(ctx, id, func(t *domain.Task) {
		t.Images = append([]domain.TaskImage{}, images...)
		t.Status = domain.TaskStatusCompleted
	})
}

// mutate applies fn to the stored task under WATCH and writes it back in a
// MULTI/EXEC block. The update time only moves forward.
func (s *RedisTaskStore) mutate(ctx context.Context, id string, fn func(*domain.Task)) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := uuid.Parse(id); err != nil {
		return store.ErrTaskNotFound
	}
	key := taskKey(id)

	txf := func(tx *redis.Tx) error {
		task, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}

		fn(task)
		if now := time.Now().UTC(); now.After(task.UpdatedAt) {
			task.UpdatedAt = now
		}

		data, err := json.Marshal(task)
		if err != nil {
			return fmt.Errorf("marshal task: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			log.Debug("task changed during update, retrying",
				slog.String("task_id", id),
				slog.Int("attempt", attempt+1))
			continue
		}
		if err != nil && !errors.Is(err, store.ErrTaskNotFound) {
			log.Error("failed to update task",
				slog.String("task_id", id),
				slog.String("error", err.Error()))
		}
		return err
	}

	return fmt.Errorf("%w: task %s changed concurrently too many times", store.ErrUpdateFailed, id)
}

// stringGetter is satisfied by *redis.Client and *redis.Tx.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// getTask loads and decodes the task document at id.
func getTask(ctx context.Context, c stringGetter, id string) (*domain.Task, error) {
	data, err := c.Get(ctx, taskKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}

	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("unmarshal task: %w", err)
	}
	if task.Images == nil {
		task.Images = []domain.TaskImage{}
	}
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	return &task, nil
}
