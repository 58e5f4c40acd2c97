package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kenyilewis/imgtask/internal/domain"
	"github.com/kenyilewis/imgtask/internal/imagesource"
	"github.com/kenyilewis/imgtask/internal/platform/logger"
	"github.com/kenyilewis/imgtask/internal/store"
	"github.com/kenyilewis/imgtask/internal/transform"
)

// ImageSource acquires and validates the image behind a reference.
// *imagesource.Resolver implements it.
type ImageSource interface {
	IsRemote(ref string) bool
	Stage(ctx context.Context, ref string) (imagesource.Staged, error)
	AcquireRemote(ctx context.Context, url string) (string, error)
	Validate(path string) error
	Cleanup(path string)
}

// Transformer produces the resized variants of a local image.
// *transform.Pipeline implements it.
type Transformer interface {
	Transform(ctx context.Context, path string) ([]transform.Variant, error)
}

// TaskService provides the task lifecycle operations.
type TaskService interface {
	// CreateTask validates the image behind imagePath and persists a pending
	// task for it. It never starts processing.
	CreateTask(ctx context.Context, imagePath string) (*domain.Task, error)

	// ProcessImage produces the variants of imagePath and moves the task to
	// completed, or to failed with the failure message. staged marks
	// imagePath as a temporary file to delete once processing ends.
	ProcessImage(ctx context.Context, taskID, imagePath string, staged bool) error

	// GetTask returns the task with the given ID.
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)

	// TaskImages returns the image records produced for a task.
	TaskImages(ctx context.Context, taskID string) ([]*domain.Image, error)
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	tasks       store.TaskStore
	images      store.ImageStore
	source      ImageSource
	transformer Transformer
	logger      *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	tasks store.TaskStore,
	images store.ImageStore,
	source ImageSource,
	transformer Transformer,
	logger *slog.Logger,
) (TaskService, error) {
	switch {
	case tasks == nil:
		return nil, NewTaskServiceError("create_service", "tasks cannot be nil", nil)
	case images == nil:
		return nil, NewTaskServiceError("create_service", "images cannot be nil", nil)
	case source == nil:
		return nil, NewTaskServiceError("create_service", "source cannot be nil", nil)
	case transformer == nil:
		return nil, NewTaskServiceError("create_service", "transformer cannot be nil", nil)
	case logger == nil:
		return nil, NewTaskServiceError("create_service", "logger cannot be nil", nil)
	}

	return &taskServiceImpl{
		tasks:       tasks,
		images:      images,
		source:      source,
		transformer: transformer,
		logger:      logger.With(slog.String("component", "task_service")),
	}, nil
}

// CreateTask implements TaskService.
func (s *taskServiceImpl) CreateTask(ctx context.Context, imagePath string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.checkSource(ctx, imagePath); err != nil {
		log.Debug("image source rejected",
			slog.String("image_path", imagePath),
			slog.String("error", err.Error()))
		return nil, err
	}

	task, err := domain.NewTask(imagePath, domain.GeneratePrice())
	if err != nil {
		return nil, NewTaskServiceError("create_task", "failed to build task", err)
	}

	created, err := s.tasks.Create(ctx, task)
	if err != nil {
		log.Error("failed to persist task", slog.String("error", err.Error()))
		return nil, NewTaskServiceError("create_task", "failed to persist task", err)
	}

	log.Info("task created",
		slog.String("task_id", created.ID),
		slog.String("price", created.Price.String()))
	return created, nil
}

// checkSource acquires and validates imagePath, releasing any temporary copy.
// Errors that are not already classified are reported as invalid paths.
func (s *taskServiceImpl) checkSource(ctx context.Context, imagePath string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicError(p)
		}
		if err != nil && !domain.IsClassified(err) {
			invalid := domain.NewInvalidPathError(err.Error())
			invalid.Err = err
			err = invalid
		}
	}()

	staged, err := s.source.Stage(ctx, imagePath)
	if err != nil {
		return err
	}
	if staged.Temp {
		defer s.source.Cleanup(staged.Path)
	}

	return s.source.Validate(staged.Path)
}

// ProcessImage implements TaskService.
func (s *taskServiceImpl) ProcessImage(ctx context.Context, taskID, imagePath string, staged bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("task_id", taskID))

	var tempPath string
	if staged {
		tempPath = imagePath
	}
	defer func() {
		if tempPath != "" {
			s.source.Cleanup(tempPath)
		}
	}()

	err := s.process(ctx, taskID, imagePath, staged, &tempPath)
	if err == nil {
		log.Info("task completed")
		return nil
	}

	msg := err.Error()
	log.Error("image processing failed", slog.String("error", msg))

	if updateErr := s.tasks.UpdateStatus(ctx, taskID, domain.TaskStatusFailed, msg); updateErr != nil {
		log.Error("failed to mark task as failed", slog.String("error", updateErr.Error()))
	}

	return domain.NewProcessingError(msg, err)
}

// process runs acquisition, transform and persistence. Panics are recovered
// into errors. Any temporary download is reported through tempPath as soon
// as it exists.
func (s *taskServiceImpl) process(
	ctx context.Context,
	taskID, imagePath string,
	staged bool,
	tempPath *string,
) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicError(p)
		}
	}()

	workingPath := imagePath
	if !staged && s.source.IsRemote(imagePath) {
		downloaded, err := s.source.AcquireRemote(ctx, imagePath)
		if err != nil {
			return err
		}
		*tempPath = downloaded
		workingPath = downloaded
	}

	variants, err := s.transformer.Transform(ctx, workingPath)
	if err != nil {
		return err
	}

	summaries := make([]domain.TaskImage, 0, len(variants))
	for _, v := range variants {
		image, err := domain.NewImage(taskID, v.Resolution, v.Path, v.MD5)
		if err != nil {
			return err
		}

		saved, err := s.images.Create(ctx, image)
		if err != nil {
			return err
		}

		summaries = append(summaries, saved.Summary())
	}

	return s.tasks.AddImages(ctx, taskID, summaries)
}

// GetTask implements TaskService.
func (s *taskServiceImpl) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, domain.NewTaskNotFoundError(taskID)
		}
		return nil, NewTaskServiceError("get_task", "failed to load task", err)
	}
	return task, nil
}

// TaskImages implements TaskService.
func (s *taskServiceImpl) TaskImages(ctx context.Context, taskID string) ([]*domain.Image, error) {
	if _, err := s.GetTask(ctx, taskID); err != nil {
		return nil, err
	}

	images, err := s.images.FindByTaskID(ctx, taskID)
	if err != nil {
		return nil, NewTaskServiceError("task_images", "failed to load images", err)
	}
	return images, nil
}
