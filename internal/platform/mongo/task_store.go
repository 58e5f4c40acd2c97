package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kenyilewis/imgtask/internal/domain"
	"github.com/kenyilewis/imgtask/internal/platform/logger"
	"github.com/kenyilewis/imgtask/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTaskStore implements store.TaskStore on the tasks collection.
type MongoTaskStore struct {
	tasks  *mongo.Collection
	logger *slog.Logger
}

var _ store.TaskStore = (*MongoTaskStore)(nil)

// NewMongoTaskStore creates a task store on db.
func NewMongoTaskStore(db *mongo.Database, logger *slog.Logger) *MongoTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoTaskStore{
		tasks:  db.Collection(TasksCollection),
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Create implements store.TaskStore.Create.
func (s *MongoTaskStore) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	doc := newTaskDocument(primitive.NewObjectID(), task)
	if _, err := s.tasks.InsertOne(ctx, doc); err != nil {
		log.Error("failed to create task", slog.String("error", err.Error()))
		return nil, mapError(err)
	}

	log.Debug("task created", slog.String("task_id", doc.ID.Hex()))
	return doc.toDomain(), nil
}

// FindByID implements store.TaskStore.FindByID.
func (s *MongoTaskStore) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrTaskNotFound
	}

	var doc taskDocument
	err = s.tasks.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to query task %s: %w", id, err)
	}

	return doc.toDomain(), nil
}

// UpdateStatus implements store.TaskStore.UpdateStatus.
func (s *MongoTaskStore) UpdateStatus(
	ctx context.Context,
	id string,
	status domain.TaskStatus,
	errMsg string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.Valid() {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidTaskStatus)
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrTaskNotFound
	}

	set := bson.M{"status": string(status)}
	if errMsg != "" {
		set["error"] = errMsg
	}

	return s.update(ctx, log, oid, set)
}

// AddImages implements store.TaskStore.AddImages with a single update
// that writes the images and the completed status together.
func (s *MongoTaskStore) AddImages(ctx context.Context, id string, images []domain.TaskImage) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrTaskNotFound
	}

	return s.update(ctx, log, oid, bson.M{
		"images": toTaskImageDocuments(images),
		"status": string(domain.TaskStatusCompleted),
	})
}

// update applies set and advances updatedAt with $max so it never moves backwards.
func (s *MongoTaskStore) update(ctx context.Context, log *slog.Logger, oid primitive.ObjectID, set bson.M) error {
	update := bson.M{
		"$set": set,
		"$max": bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := s.tasks.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		log.Error("failed to update task",
			slog.String("task_id", oid.Hex()),
			slog.String("error", err.Error()))
		return mapError(err)
	}
	if result.MatchedCount == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// mapError translates driver errors into store errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}
