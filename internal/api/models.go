package api

import (
	"time"

	"github.com/kenyilewis/imgtask/internal/domain"
)

// CreateTaskRequest is the JSON body of POST /tasks.
type CreateTaskRequest struct {
	ImagePath string `json:"imagePath" validate:"required"`
}

// ImageResponse is a {resolution, path} pair of a completed task.
type ImageResponse struct {
	Resolution string `json:"resolution"`
	Path       string `json:"path"`
}

// TaskResponse represents a task in API responses.
type TaskResponse struct {
	TaskID       string          `json:"taskId"`
	Status       string          `json:"status"`
	Price        domain.Price    `json:"price"`
	OriginalPath string          `json:"originalPath,omitempty"`
	Images       []ImageResponse `json:"images,omitempty"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// ImageRecordResponse is one stored variant in GET /tasks/{taskId}/images.
type ImageRecordResponse struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"taskId"`
	Resolution string    `json:"resolution"`
	Path       string    `json:"path"`
	MD5        string    `json:"md5"`
	CreatedAt  time.Time `json:"createdAt"`
}

// taskToResponse converts a domain.Task. Images are listed only once the
// task has completed.
func taskToResponse(task *domain.Task) TaskResponse {
	resp := TaskResponse{
		TaskID:       task.ID,
		Status:       string(task.Status),
		Price:        task.Price,
		OriginalPath: task.OriginalPath,
		Error:        task.Error,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}

	if task.Status == domain.TaskStatusCompleted && len(task.Images) > 0 {
		resp.Images = make([]ImageResponse, 0, len(task.Images))
		for _, img := range task.Images {
			resp.Images = append(resp.Images, ImageResponse{Resolution: img.Resolution, Path: img.Path})
		}
	}

	return resp
}

func imagesToResponse(images []*domain.Image) []ImageRecordResponse {
	resp := make([]ImageRecordResponse, 0, len(images))
	for _, img := range images {
		resp = append(resp, ImageRecordResponse{
			ID:         img.ID,
			TaskID:     img.TaskID,
			Resolution: img.Resolution,
			Path:       img.Path,
			MD5:        img.MD5,
			CreatedAt:  img.CreatedAt,
		})
	}
	return resp
}
