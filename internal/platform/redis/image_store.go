package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kenyilewis/imgtask/internal/domain"
	"github.com/kenyilewis/imgtask/internal/platform/logger"
	"github.com/kenyilewis/imgtask/internal/store"
	"github.com/redis/go-redis/v9"
)

// RedisImageStore implements store.ImageStore with one JSON document per image.
type RedisImageStore struct {
	rdb    *redis.Client
	logger *slog.Logger
}

var _ store.ImageStore = (*RedisImageStore)(nil)

// NewRedisImageStore creates an image store on rdb.
func NewRedisImageStore(rdb *redis.Client, logger *slog.Logger) *RedisImageStore {
	if rdb == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisImageStore{
		rdb:    rdb,
		logger: logger.With(slog.String("component", "image_store")),
	}
}

// Create implements store.ImageStore.Create.
// Returns store.ErrInvalidEntity if the owning task does not exist.
func (s *RedisImageStore) Create(ctx context.Context, image *domain.Image) (*domain.Image, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := image.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	n, err := s.rdb.Exists(ctx, taskKey(image.TaskID)).Result()
	if err != nil {
		return nil, fmt.Errorf("check task: %w", err)
	}
	if n == 0 {
		log.Warn("image references unknown task", slog.String("task_id", image.TaskID))
		return nil, fmt.Errorf("%w: task with ID %s not found", store.ErrInvalidEntity, image.TaskID)
	}

	created := *image
	created.ID = uuid.New().String()

	data, err := json.Marshal(&created)
	if err != nil {
		return nil, fmt.Errorf("marshal image: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, imageKey(created.ID), data, 0)
		pipe.RPush(ctx, taskImagesKey(created.TaskID), created.ID)
		if created.MD5 != "" {
			pipe.Set(ctx, md5Key(created.MD5), created.ID, 0)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to create image",
			slog.String("task_id", image.TaskID),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("create image: %w", err)
	}

	return &created, nil
}

// FindByTaskID implements store.ImageStore.FindByTaskID.
func (s *RedisImageStore) FindByTaskID(ctx context.Context, taskID string) ([]*domain.Image, error) {
	images := make([]*domain.Image, 0)

	ids, err := s.rdb.LRange(ctx, taskImagesKey(taskID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	if len(ids) == 0 {
		return images, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = imageKey(id)
	}

	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch images: %w", err)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			s.logger.Warn("image listed for task is missing",
				slog.String("task_id", taskID),
				slog.String("image_id", ids[i]))
			continue
		}
		img, err := decodeImage([]byte(raw))
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	return images, nil
}

// FindByMD5 implements store.ImageStore.FindByMD5.
func (s *RedisImageStore) FindByMD5(ctx context.Context, md5 string) (*domain.Image, error) {
	id, err := s.rdb.Get(ctx, md5Key(md5)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrImageNotFound
		}
		return nil, fmt.Errorf("get md5 index: %w", err)
	}

	data, err := s.rdb.Get(ctx, imageKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrImageNotFound
		}
		return nil, fmt.Errorf("get image: %w", err)
	}

	return decodeImage(data)
}

func decodeImage(data []byte) (*domain.Image, error) {
	var img domain.Image
	if err := json.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("unmarshal image: %w", err)
	}
	img.CreatedAt = img.CreatedAt.UTC()
	return &img, nil
}
