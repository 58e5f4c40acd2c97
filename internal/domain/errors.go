package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by the task lifecycle carries exactly one
// of these, so callers can branch with errors.Is regardless of the cause.
var (
	// ErrInvalidPath is returned when a local source is missing, unreadable or
	// not a regular file.
	ErrInvalidPath = errors.New("invalid image path")

	// ErrInvalidFormat is returned when a source exists but cannot be decoded
	// as a supported raster image.
	ErrInvalidFormat = errors.New("invalid image format")

	// ErrDownloadFailed is returned when a remote source cannot be fetched or
	// does not declare an image content type.
	ErrDownloadFailed = errors.New("image download failed")

	// ErrTaskNotFound is returned when no task exists for a given ID.
	ErrTaskNotFound = errors.New("task not found")

	// ErrImageProcessing is returned by the asynchronous processing phase.
	// It always wraps the original cause.
	ErrImageProcessing = errors.New("image processing failed")

	// ErrTransformFailed is returned when decoding, resizing or encoding a
	// variant fails.
	ErrTransformFailed = errors.New("image transform failed")
)

// Validation errors for Task values.
var (
	ErrInvalidTaskStatus  = errors.New("invalid task status")
	ErrInvalidTransition  = errors.New("invalid task status transition")
	ErrInvalidPrice       = errors.New("price out of range")
	ErrEmptyOriginalPath  = errors.New("original path cannot be empty")
	ErrEmptyImageTaskID   = errors.New("image task ID cannot be empty")
	ErrInvalidResolution  = errors.New("invalid image resolution")
	ErrEmptyImageLocation = errors.New("image path cannot be empty")
)

// Error is a classified failure. Kind is one of the sentinel kinds above,
// Message is the human readable text persisted or returned to callers and Err
// is the optional underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewInvalidPathError reports a local source that cannot be used.
func NewInvalidPathError(path string) *Error {
	return &Error{Kind: ErrInvalidPath, Message: fmt.Sprintf("Invalid image path: %s", path)}
}

// NewInvalidFormatError reports a source that does not decode as an image.
func NewInvalidFormatError(msg string, cause error) *Error {
	return &Error{Kind: ErrInvalidFormat, Message: "Invalid image format: " + msg, Err: cause}
}

// NewDownloadError reports an unsuccessful remote fetch.
func NewDownloadError(msg string, cause error) *Error {
	return &Error{Kind: ErrDownloadFailed, Message: "Image download failed: " + msg, Err: cause}
}

// NewTaskNotFoundError reports an unknown task ID.
func NewTaskNotFoundError(taskID string) *Error {
	return &Error{Kind: ErrTaskNotFound, Message: fmt.Sprintf("Task with ID %s not found", taskID)}
}

// NewProcessingError wraps a failure of the asynchronous pipeline.
func NewProcessingError(msg string, cause error) *Error {
	return &Error{Kind: ErrImageProcessing, Message: "Image processing failed: " + msg, Err: cause}
}

// NewTransformError reports a decode, resize or encode failure.
func NewTransformError(msg string, cause error) *Error {
	return &Error{Kind: ErrTransformFailed, Message: "Image transform failed: " + msg, Err: cause}
}

// IsClassified reports whether err already carries one of the kinds that
// task creation surfaces to its caller unmodified.
func IsClassified(err error) bool {
	return errors.Is(err, ErrInvalidPath) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrDownloadFailed)
}

// IsClientError reports whether err is caused by caller input rather than by
// an internal fault.
func IsClientError(err error) bool {
	return IsClassified(err) || errors.Is(err, ErrTaskNotFound)
}
