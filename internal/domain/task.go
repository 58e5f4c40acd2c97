package domain

import (
	"time"
)

// TaskStatus represents the processing state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition can leave s.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// TaskImage is the {resolution, path} summary stored on a completed task.
type TaskImage struct {
	Resolution string `json:"resolution"`
	Path       string `json:"path"`
}

// Task is one image processing request. It is created pending and moved
// exactly once to completed (with images) or failed (with an error).
type Task struct {
	ID           string      `json:"id"`
	Status       TaskStatus  `json:"status"`
	Price        Price       `json:"price"`
	OriginalPath string      `json:"originalPath"`
	Images       []TaskImage `json:"images"`
	Error        string      `json:"error,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// NewTask creates a pending task for originalPath. The ID stays empty until
// the task is persisted.
func NewTask(originalPath string, price Price) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		Status:       TaskStatusPending,
		Price:        price,
		OriginalPath: originalPath,
		Images:       []TaskImage{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks the invariants every stored task must hold.
func (t *Task) Validate() error {
	if !t.Status.Valid() {
		return ErrInvalidTaskStatus
	}
	if !t.Price.Valid() {
		return ErrInvalidPrice
	}
	if t.OriginalPath == "" {
		return ErrEmptyOriginalPath
	}
	return nil
}

// MarkCompleted attaches the produced images and moves the task to completed.
func (t *Task) MarkCompleted(images []TaskImage) error {
	if t.Status.IsTerminal() {
		return ErrInvalidTransition
	}
	t.Status = TaskStatusCompleted
	t.Images = append([]TaskImage(nil), images...)
	t.touch()
	return nil
}

// MarkFailed records msg and moves the task to failed.
func (t *Task) MarkFailed(msg string) error {
	if t.Status.IsTerminal() {
		return ErrInvalidTransition
	}
	t.Status = TaskStatusFailed
	t.Error = msg
	t.touch()
	return nil
}

// touch advances UpdatedAt without ever moving it backwards.
func (t *Task) touch() {
	now := time.Now().UTC()
	if now.After(t.UpdatedAt) {
		t.UpdatedAt = now
	}
}
