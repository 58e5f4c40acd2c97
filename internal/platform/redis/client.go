package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "imgtask:"
	pingTimeout = 5 * time.Second
)

func taskKey(id string) string       { return keyPrefix + "task:" + id }
func taskImagesKey(id string) string { return keyPrefix + "task:" + id + ":images" }
func imageKey(id string) string      { return keyPrefix + "image:" + id }
func md5Key(sum string) string       { return keyPrefix + "md5:" + sum }

// Client wraps a connected go-redis client.
type Client struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// Connect parses url (redis:// or rediss://) and verifies the connection.
func Connect(ctx context.Context, url string, log *slog.Logger) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewClient(ctx, redis.NewClient(opts), log)
}

// NewClient wraps an existing go-redis client after pinging it.
func NewClient(ctx context.Context, rdb *redis.Client, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	log.Info("redis connection established",
		slog.String("component", "redis"),
		slog.String("addr", rdb.Options().Addr))

	return &Client{rdb: rdb, logger: log}, nil
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// TaskStore returns a task store backed by this client.
func (c *Client) TaskStore() *RedisTaskStore {
	return NewRedisTaskStore(c.rdb, c.logger)
}

// ImageStore returns an image store backed by this client.
func (c *Client) ImageStore() *RedisImageStore {
	return NewRedisImageStore(c.rdb, c.logger)
}
