package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/kenyilewis/imgtask/internal/domain"
	"github.com/kenyilewis/imgtask/internal/imagesource"
	"github.com/kenyilewis/imgtask/internal/mocks"
	"github.com/kenyilewis/imgtask/internal/service"
	"github.com/kenyilewis/imgtask/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskService_NilDependencies(t *testing.T) {
	t.Parallel()

	tasks := mocks.NewTaskStore()
	images := mocks.NewImageStore()
	source := imagesource.NewResolver(t.TempDir(), nil, nil)
	transformer := &mocks.MockTransformer{}
	log := quietLogger()

	tests := []struct {
		name string
		fn   func() (service.TaskService, error)
	}{
		{"nil_tasks", func() (service.TaskService, error) {
			return service.NewTaskService(nil, images, source, transformer, log)
		}},
		{"nil_images", func() (service.TaskService, error) {
			return service.NewTaskService(tasks, nil, source, transformer, log)
		}},
		{"nil_source", func() (service.TaskService, error) {
			return service.NewTaskService(tasks, images, nil, transformer, log)
		}},
		{"nil_transformer", func() (service.TaskService, error) {
			return service.NewTaskService(tasks, images, source, nil, log)
		}},
		{"nil_logger", func() (service.TaskService, error) {
			return service.NewTaskService(tasks, images, source, transformer, nil)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := tt.fn()
			assert.Nil(t, svc)
			var svcErr *service.TaskServiceError
			assert.ErrorAs(t, err, &svcErr)
		})
	}
}

func TestCreateTask_LocalImage(t *testing.T) {
	t.Parallel()
	f := newFixture(t, &mocks.MockTransformer{})
	path := writeImage(t, "local.png", 20, 10)

	task, err := f.svc.CreateTask(context.Background(), path)

	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.Equal(t, path, task.OriginalPath)
	assert.NotNil(t, task.Images)
	assert.Empty(t, task.Images)
	assert.Empty(t, task.Error)
	assert.GreaterOrEqual(t, task.Price, domain.MinPrice)
	assert.LessOrEqual(t, task.Price, domain.MaxPrice)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)
	assert.Equal(t, 1, f.tasks.Len())

	count, _ := f.transformer.(*mocks.MockTransformer).Calls()
	assert.Zero(t, count, "creation never starts processing")
}

func TestCreateTask_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ref     func(t *testing.T) string
		kind    error
		message string
	}{
		{
			name:    "missing_local_path",
			ref:     func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.png") },
			kind:    domain.ErrInvalidPath,
			message: "Invalid image path: ",
		},
		{
			name:    "directory",
			ref:     func(t *testing.T) string { return t.TempDir() },
			kind:    domain.ErrInvalidPath,
			message: "Invalid image path: ",
		},
		{
			name: "undecodable_local_file",
			ref: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "notes.jpg")
				require.NoError(t, os.WriteFile(p, []byte("not pixels"), 0o644))
				return p
			},
			kind:    domain.ErrInvalidFormat,
			message: "Invalid image format: ",
		},
		{
			name:    "remote_not_found",
			ref:     func(t *testing.T) string { return serveImage(t, "image/png", http.StatusNotFound, nil) },
			kind:    domain.ErrDownloadFailed,
			message: "Image download failed: Not Found",
		},
		{
			name:    "remote_html",
			ref:     func(t *testing.T) string { return serveImage(t, "text/html", http.StatusOK, []byte("<p>hi</p>")) },
			kind:    domain.ErrDownloadFailed,
			message: "Image download failed: URL does not point to a valid image",
		},
		{
			name:    "remote_without_content_type",
			ref:     func(t *testing.T) string { return serveImage(t, "", http.StatusOK, nil) },
			kind:    domain.ErrDownloadFailed,
			message: "Image download failed: URL does not point to a valid image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, &mocks.MockTransformer{})
			createCalled := false
			f.tasks.CreateFn = func(context.Context, *domain.Task) (*domain.Task, error) {
				createCalled = true
				return nil, errors.New("unexpected create")
			}

			task, err := f.svc.CreateTask(context.Background(), tt.ref(t))

			assert.Nil(t, task)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Contains(t, err.Error(), tt.message)
			assert.False(t, createCalled, "no task is persisted on failure")
			assert.Empty(t, tempFiles(t, f.tempDir))
		})
	}
}

func TestCreateTask_RemoteImageCleansUp(t *testing.T) {
	t.Parallel()
	f := newFixture(t, &mocks.MockTransformer{})
	url := serveImage(t, "image/png", http.StatusOK, pngBytes(t, 30, 30))

	task, err := f.svc.CreateTask(context.Background(), url)

	require.NoError(t, err)
	assert.Equal(t, url, task.OriginalPath)
	require.Len(t, f.source.Acquired(), 1)
	assert.Equal(t, f.source.Acquired(), f.source.Cleaned())
	assert.Empty(t, tempFiles(t, f.tempDir))
}

func TestCreateTask_RemoteUndecodableCleansUp(t *testing.T) {
	t.Parallel()
	f := newFixture(t, &mocks.MockTransformer{})
	url := serveImage(t, "image/png", http.StatusOK, []byte("garbage"))

	_, err := f.svc.CreateTask(context.Background(), url)

	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
	assert.Len(t, f.source.Cleaned(), 1)
	assert.Empty(t, tempFiles(t, f.tempDir))
}

func TestCreateTask_StoreFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t, &mocks.MockTransformer{})
	dbErr := errors.New("connection refused")
	f.tasks.CreateFn = func(context.Context, *domain.Task) (*domain.Task, error) {
		return nil, dbErr
	}

	_, err := f.svc.CreateTask(context.Background(), writeImage(t, "a.png", 4, 4))

	assert.ErrorIs(t, err, dbErr)
	assert.False(t, domain.IsClientError(err))
}

func TestProcessImage_LocalImage(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	path := writeImage(t, "sunset.png", 1600, 900)

	created, err := f.svc.CreateTask(context.Background(), path)
	require.NoError(t, err)

	err = f.svc.ProcessImage(context.Background(), created.ID, path, false)
	require.NoError(t, err)

	records := f.images.All()
	require.Len(t, records, 2)
	assert.Equal(t, domain.Resolution1024, records[0].Resolution)
	assert.Equal(t, domain.Resolution800, records[1].Resolution)
	for _, r := range records {
		assert.Equal(t, created.ID, r.TaskID)
		assert.Len(t, r.MD5, 32)
		assert.Equal(t, filepath.Join(f.outputDir, "sunset", r.Resolution, r.MD5+".png"), r.Path)
		assert.FileExists(t, r.Path)
	}

	assert.Equal(t, 1, f.tasks.AddImagesCalls())
	assert.Empty(t, f.tasks.StatusUpdates())

	got, err := f.svc.GetTask(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
	assert.Equal(t, created.Price, got.Price)
	assert.Equal(t, []domain.TaskImage{records[0].Summary(), records[1].Summary()}, got.Images)
	assert.Empty(t, got.Error)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	_, err = os.Stat(path)
	assert.NoError(t, err, "local sources are kept")
}

func TestProcessImage_TransformFailure(t *testing.T) {
	t.Parallel()
	transformer := &mocks.MockTransformer{Err: domain.NewTransformError("corrupt data", nil)}
	f := newFixture(t, transformer)
	path := writeImage(t, "a.png", 8, 8)
	created, err := f.svc.CreateTask(context.Background(), path)
	require.NoError(t, err)

	err = f.svc.ProcessImage(context.Background(), created.ID, path, false)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrImageProcessing)
	assert.ErrorIs(t, err, domain.ErrTransformFailed)
	assert.Equal(t, "Image processing failed: Image transform failed: corrupt data", err.Error())

	assert.Equal(t, []mocks.StatusUpdate{{
		ID:     created.ID,
		Status: domain.TaskStatusFailed,
		Error:  "Image transform failed: corrupt data",
	}}, f.tasks.StatusUpdates())
	assert.Empty(t, f.images.All())
	assert.Zero(t, f.tasks.AddImagesCalls())

	got, err := f.svc.GetTask(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusFailed, got.Status)
	assert.Equal(t, "Image transform failed: corrupt data", got.Error)
	assert.Empty(t, got.Images)
}

func TestProcessImage_PanicValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   any
		message string
	}{
		{"error_value", errors.New("decoder exploded"), "decoder exploded"},
		{"string_value", "something odd", "Unknown error"},
		{"int_value", 42, "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, &mocks.MockTransformer{
				TransformFn: func(context.Context, string) ([]transform.Variant, error) {
					panic(tt.value)
				},
			})
			path := writeImage(t, "a.png", 8, 8)
			created, err := f.svc.CreateTask(context.Background(), path)
			require.NoError(t, err)

			err = f.svc.ProcessImage(context.Background(), created.ID, path, false)

			assert.ErrorIs(t, err, domain.ErrImageProcessing)
			updates := f.tasks.StatusUpdates()
			require.Len(t, updates, 1)
			assert.Equal(t, tt.message, updates[0].Error)
		})
	}
}

func TestProcessImage_RemoteDownloadsOnceAndCleansUp(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		f := newFixture(t, nil)
		url := serveImage(t, "image/png", http.StatusOK, pngBytes(t, 1200, 600))
		created, err := f.svc.CreateTask(context.Background(), url)
		require.NoError(t, err)
		before := len(f.source.Acquired())

		err = f.svc.ProcessImage(context.Background(), created.ID, url, false)

		require.NoError(t, err)
		acquired := f.source.Acquired()[before:]
		require.Len(t, acquired, 1)
		assert.Contains(t, f.source.Cleaned(), acquired[0])
		assert.Empty(t, tempFiles(t, f.tempDir))

		records := f.images.All()
		require.Len(t, records, 2)
		base := filepath.Base(acquired[0])
		base = base[:len(base)-len(filepath.Ext(base))]
		assert.Equal(t, filepath.Join(f.outputDir, base, "1024", records[0].MD5+".png"), records[0].Path)
	})

	t.Run("failure", func(t *testing.T) {
		f := newFixture(t, &mocks.MockTransformer{Err: errors.New("boom")})
		url := serveImage(t, "image/png", http.StatusOK, pngBytes(t, 10, 10))
		created, err := f.svc.CreateTask(context.Background(), url)
		require.NoError(t, err)
		before := len(f.source.Acquired())

		err = f.svc.ProcessImage(context.Background(), created.ID, url, false)

		assert.ErrorIs(t, err, domain.ErrImageProcessing)
		acquired := f.source.Acquired()[before:]
		require.Len(t, acquired, 1)
		assert.Contains(t, f.source.Cleaned(), acquired[0])
		assert.Empty(t, tempFiles(t, f.tempDir))
	})

	t.Run("download_failure", func(t *testing.T) {
		f := newFixture(t, &mocks.MockTransformer{})
		url := serveImage(t, "image/png", http.StatusBadGateway, nil)
		task, err := domain.NewTask(url, domain.GeneratePrice())
		require.NoError(t, err)
		created, err := f.tasks.Create(context.Background(), task)
		require.NoError(t, err)

		err = f.svc.ProcessImage(context.Background(), created.ID, url, false)

		assert.ErrorIs(t, err, domain.ErrImageProcessing)
		assert.ErrorIs(t, err, domain.ErrDownloadFailed)
		updates := f.tasks.StatusUpdates()
		require.Len(t, updates, 1)
		assert.Equal(t, "Image download failed: Bad Gateway", updates[0].Error)
	})
}

func TestProcessImage_StagedFileIsDeleted(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		f := newFixture(t, nil)
		staged := writeImage(t, "upload.png", 100, 100)
		created, err := f.svc.CreateTask(context.Background(), staged)
		require.NoError(t, err)

		require.NoError(t, f.svc.ProcessImage(context.Background(), created.ID, staged, true))

		_, err = os.Stat(staged)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("failure", func(t *testing.T) {
		f := newFixture(t, &mocks.MockTransformer{Err: errors.New("boom")})
		staged := writeImage(t, "upload.png", 100, 100)
		created, err := f.svc.CreateTask(context.Background(), staged)
		require.NoError(t, err)

		require.Error(t, f.svc.ProcessImage(context.Background(), created.ID, staged, true))

		_, err = os.Stat(staged)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("staged_url_is_not_downloaded", func(t *testing.T) {
		transformer := &mocks.MockTransformer{Err: errors.New("stop")}
		f := newFixture(t, transformer)

		_ = f.svc.ProcessImage(context.Background(), "task-1", "http://example.invalid/a.png", true)

		assert.Empty(t, f.source.Acquired())
		_, paths := transformer.Calls()
		assert.Equal(t, []string{"http://example.invalid/a.png"}, paths)
	})
}

func TestProcessImage_ImageStoreFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.images.CreateFn = func(context.Context, *domain.Image) (*domain.Image, error) {
		return nil, errors.New("disk full")
	}
	path := writeImage(t, "a.png", 10, 10)
	created, err := f.svc.CreateTask(context.Background(), path)
	require.NoError(t, err)

	err = f.svc.ProcessImage(context.Background(), created.ID, path, false)

	assert.ErrorIs(t, err, domain.ErrImageProcessing)
	got, err := f.svc.GetTask(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusFailed, got.Status)
	assert.Equal(t, "disk full", got.Error)
}

func TestProcessImage_AddImagesFailureMarksFailed(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.tasks.AddImagesFn = func(context.Context, string, []domain.TaskImage) error {
		return errors.New("write conflict")
	}
	path := writeImage(t, "a.png", 10, 10)
	created, err := f.svc.CreateTask(context.Background(), path)
	require.NoError(t, err)

	err = f.svc.ProcessImage(context.Background(), created.ID, path, false)

	assert.ErrorIs(t, err, domain.ErrImageProcessing)
	updates := f.tasks.StatusUpdates()
	require.Len(t, updates, 1)
	assert.Equal(t, domain.TaskStatusFailed, updates[0].Status)
	assert.Equal(t, "write conflict", updates[0].Error)
}

func TestProcessImage_UpdateStatusFailureStillReturnsProcessingError(t *testing.T) {
	t.Parallel()
	f := newFixture(t, &mocks.MockTransformer{Err: errors.New("boom")})
	f.tasks.UpdateStatusFn = func(context.Context, string, domain.TaskStatus, string) error {
		return errors.New("database gone")
	}

	err := f.svc.ProcessImage(context.Background(), "task-1", writeImage(t, "a.png", 4, 4), false)

	assert.ErrorIs(t, err, domain.ErrImageProcessing)
	assert.Equal(t, "Image processing failed: boom", err.Error())
}

func TestGetTask(t *testing.T) {
	t.Parallel()

	t.Run("not_found", func(t *testing.T) {
		f := newFixture(t, &mocks.MockTransformer{})

		task, err := f.svc.GetTask(context.Background(), "never-created")

		assert.Nil(t, task)
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
		assert.Equal(t, "Task with ID never-created not found", err.Error())
	})

	t.Run("store_failure", func(t *testing.T) {
		f := newFixture(t, &mocks.MockTransformer{})
		f.tasks.FindByIDFn = func(context.Context, string) (*domain.Task, error) {
			return nil, fmt.Errorf("failed to query task: %w", errors.New("timeout"))
		}

		_, err := f.svc.GetTask(context.Background(), "x")

		assert.NotErrorIs(t, err, domain.ErrTaskNotFound)
		var svcErr *service.TaskServiceError
		assert.ErrorAs(t, err, &svcErr)
	})
}

func TestTaskImages(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	path := writeImage(t, "a.png", 2048, 1024)
	created, err := f.svc.CreateTask(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, f.svc.ProcessImage(context.Background(), created.ID, path, false))

	images, err := f.svc.TaskImages(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "1024", images[0].Resolution)

	_, err = f.svc.TaskImages(context.Background(), "unknown")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}
