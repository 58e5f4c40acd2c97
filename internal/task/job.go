package task

import (
	"context"
	"errors"
)

// Job type constants
const (
	// JobTypeProcessImage identifies the image processing job
	JobTypeProcessImage = "process_image"
)

// ErrEmptyTaskID is returned when a job is built without a task ID.
var ErrEmptyTaskID = errors.New("task ID cannot be empty")

// Job represents a unit of background work
type Job interface {
	// ID returns an identifier used in logs and error reports
	ID() string

	// Type returns the job type identifier
	Type() string

	// Execute runs the job logic
	Execute(ctx context.Context) error
}

// ImageProcessor runs the processing phase of an image task.
type ImageProcessor interface {
	ProcessImage(ctx context.Context, taskID, imagePath string, staged bool) error
}

// ProcessImageJob processes the source image of one task.
type ProcessImageJob struct {
	taskID    string
	imagePath string
	staged    bool
	processor ImageProcessor
}

// NewProcessImageJob creates a job that calls processor.ProcessImage.
func NewProcessImageJob(processor ImageProcessor, taskID, imagePath string, staged bool) (*ProcessImageJob, error) {
	if processor == nil {
		return nil, errors.New("processor cannot be nil")
	}
	if taskID == "" {
		return nil, ErrEmptyTaskID
	}

	return &ProcessImageJob{
		taskID:    taskID,
		imagePath: imagePath,
		staged:    staged,
		processor: processor,
	}, nil
}

// ID returns the task ID.
func (j *ProcessImageJob) ID() string {
	return j.taskID
}

// Type returns JobTypeProcessImage.
func (j *ProcessImageJob) Type() string {
	return JobTypeProcessImage
}

// Execute runs the processing phase. The task records its own outcome, so
// the returned error is informational.
func (j *ProcessImageJob) Execute(ctx context.Context) error {
	return j.processor.ProcessImage(ctx, j.taskID, j.imagePath, j.staged)
}
