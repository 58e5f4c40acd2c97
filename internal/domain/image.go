package domain

import "time"

// Resolution labels for the produced variants, in production order.
const (
	Resolution1024 = "1024"
	Resolution800  = "800"
)

// Image is the record of one produced variant. It references its task by ID
// and is never mutated after creation.
type Image struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"taskId"`
	Resolution string    `json:"resolution"`
	Path       string    `json:"path"`
	MD5        string    `json:"md5"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewImage builds an unsaved image record.
func NewImage(taskID, resolution, path, md5 string) (*Image, error) {
	img := &Image{
		TaskID:     taskID,
		Resolution: resolution,
		Path:       path,
		MD5:        md5,
		CreatedAt:  time.Now().UTC(),
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// Validate checks the fields required to persist an image record.
func (i *Image) Validate() error {
	if i.TaskID == "" {
		return ErrEmptyImageTaskID
	}
	if i.Resolution == "" {
		return ErrInvalidResolution
	}
	if i.Path == "" {
		return ErrEmptyImageLocation
	}
	return nil
}

// Summary returns the {resolution, path} pair stored on the owning task.
func (i *Image) Summary() TaskImage {
	return TaskImage{Resolution: i.Resolution, Path: i.Path}
}
