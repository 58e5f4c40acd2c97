package mongo

import (
	"time"

	"github.com/kenyilewis/imgtask/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type taskImageDocument struct {
	Resolution string `bson:"resolution"`
	Path       string `bson:"path"`
}

// taskDocument is the stored shape of a task. Price is kept in cents.
type taskDocument struct {
	ID           primitive.ObjectID  `bson:"_id"`
	Status       string              `bson:"status"`
	Price        int64               `bson:"price"`
	OriginalPath string              `bson:"originalPath"`
	Images       []taskImageDocument `bson:"images"`
	Error        string              `bson:"error,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt"`
}

type imageDocument struct {
	ID         primitive.ObjectID `bson:"_id"`
	TaskID     primitive.ObjectID `bson:"taskId"`
	Resolution string             `bson:"resolution"`
	Path       string             `bson:"path"`
	MD5        string             `bson:"md5"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

func toTaskImageDocuments(images []domain.TaskImage) []taskImageDocument {
	docs := make([]taskImageDocument, 0, len(images))
	for _, img := range images {
		docs = append(docs, taskImageDocument{Resolution: img.Resolution, Path: img.Path})
	}
	return docs
}

func newTaskDocument(id primitive.ObjectID, t *domain.Task) taskDocument {
	return taskDocument{
		ID:           id,
		Status:       string(t.Status),
		Price:        int64(t.Price),
		OriginalPath: t.OriginalPath,
		Images:       toTaskImageDocuments(t.Images),
		Error:        t.Error,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func (d taskDocument) toDomain() *domain.Task {
	images := make([]domain.TaskImage, 0, len(d.Images))
	for _, img := range d.Images {
		images = append(images, domain.TaskImage{Resolution: img.Resolution, Path: img.Path})
	}
	return &domain.Task{
		ID:           d.ID.Hex(),
		Status:       domain.TaskStatus(d.Status),
		Price:        domain.Price(d.Price),
		OriginalPath: d.OriginalPath,
		Images:       images,
		Error:        d.Error,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func (d imageDocument) toDomain() *domain.Image {
	return &domain.Image{
		ID:         d.ID.Hex(),
		TaskID:     d.TaskID.Hex(),
		Resolution: d.Resolution,
		Path:       d.Path,
		MD5:        d.MD5,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}
