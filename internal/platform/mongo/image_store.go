package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kenyilewis/imgtask/internal/domain"
	"github.com/kenyilewis/imgtask/internal/platform/logger"
	"github.com/kenyilewis/imgtask/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoImageStore implements store.ImageStore on the images collection.
type MongoImageStore struct {
	images *mongo.Collection
	tasks  *mongo.Collection
	logger *slog.Logger
}

var _ store.ImageStore = (*MongoImageStore)(nil)

// NewMongoImageStore creates an image store on db.
func NewMongoImageStore(db *mongo.Database, logger *slog.Logger) *MongoImageStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoImageStore{
		images: db.Collection(ImagesCollection),
		tasks:  db.Collection(TasksCollection),
		logger: logger.With(slog.String("component", "image_store")),
	}
}

// Create implements store.ImageStore.Create.
// Returns store.ErrInvalidEntity if the owning task does not exist.
func (s *MongoImageStore) Create(ctx context.Context, image *domain.Image) (*domain.Image, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := image.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	taskID, err := primitive.ObjectIDFromHex(image.TaskID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed task ID %q", store.ErrInvalidEntity, image.TaskID)
	}

	n, err := s.tasks.CountDocuments(ctx, bson.M{"_id": taskID}, options.Count().SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to check task %s: %w", image.TaskID, err)
	}
	if n == 0 {
		log.Warn("image references unknown task", slog.String("task_id", image.TaskID))
		return nil, fmt.Errorf("%w: task with ID %s not found", store.ErrInvalidEntity, image.TaskID)
	}

	doc := imageDocument{
		ID:         primitive.NewObjectID(),
		TaskID:     taskID,
		Resolution: image.Resolution,
		Path:       image.Path,
		MD5:        image.MD5,
		CreatedAt:  image.CreatedAt,
	}
	if _, err := s.images.InsertOne(ctx, doc); err != nil {
		log.Error("failed to create image",
			slog.String("task_id", image.TaskID),
			slog.String("error", err.Error()))
		return nil, mapError(err)
	}

	return doc.toDomain(), nil
}

// FindByTaskID implements store.ImageStore.FindByTaskID.
func (s *MongoImageStore) FindByTaskID(ctx context.Context, taskID string) ([]*domain.Image, error) {
	images := make([]*domain.Image, 0)

	oid, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return images, nil
	}

	cursor, err := s.images.Find(ctx, bson.M{"taskId": oid}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []imageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}

	for _, doc := range docs {
		images = append(images, doc.toDomain())
	}
	return images, nil
}

// FindByMD5 implements store.ImageStore.FindByMD5.
func (s *MongoImageStore) FindByMD5(ctx context.Context, md5 string) (*domain.Image, error) {
	var doc imageDocument
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})
	err := s.images.FindOne(ctx, bson.M{"md5": md5}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to query image by md5: %w", err)
	}
	return doc.toDomain(), nil
}
