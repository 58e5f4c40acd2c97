package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	TasksCollection  = "tasks"
	ImagesCollection = "images"
)

const (
	connectTimeout    = 10 * time.Second
	disconnectTimeout = 5 * time.Second
)

// Client wraps a connected MongoDB client and the application database.
type Client struct {
	client   *mongo.Client
	database *mongo.Database
	logger   *slog.Logger
}

// Connect dials uri, verifies the connection and ensures the indexes the
// stores rely on exist.
func Connect(ctx context.Context, uri, database string, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "mongo"))

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	safeURI := maskURI(uri)
	log.Info("connecting to MongoDB", slog.String("uri", safeURI), slog.String("database", database))

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB at %s: %w", safeURI, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB at %s: %w", safeURI, err)
	}

	c := &Client{
		client:   client,
		database: client.Database(database),
		logger:   log,
	}

	if err := c.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return c, nil
}

// Database returns the application database handle.
func (c *Client) Database() *mongo.Database {
	return c.database
}

// EnsureIndexes creates the secondary indexes used by the stores. Creating
// an index that already exists is a no-op on the server.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	_, err := c.database.Collection(TasksCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create tasks index: %w", err)
	}

	_, err = c.database.Collection(ImagesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "taskId", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "md5", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create images indexes: %w", err)
	}

	return nil
}

// Close disconnects from the server.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return c.client.Disconnect(ctx)
}

// TaskStore returns a task store backed by this client.
func (c *Client) TaskStore() *MongoTaskStore {
	return NewMongoTaskStore(c.database, c.logger)
}

// ImageStore returns an image store backed by this client.
func (c *Client) ImageStore() *MongoImageStore {
	return NewMongoImageStore(c.database, c.logger)
}

// maskURI hides the password component of uri for logging.
func maskURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "invalid-uri"
	}
	return u.Redacted()
}
