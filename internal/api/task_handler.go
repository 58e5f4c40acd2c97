package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kenyilewis/imgtask/internal/api/shared"
	"github.com/kenyilewis/imgtask/internal/domain"
	"github.com/kenyilewis/imgtask/internal/platform/logger"
	"github.com/kenyilewis/imgtask/internal/service"
	"github.com/kenyilewis/imgtask/internal/task"
)

// Form field names accepted by POST /tasks.
const (
	fileField      = "file"
	imagePathField = "imagePath"
)

// maxFieldBytes bounds plain multipart form values.
const maxFieldBytes = 4096

// Uploader stages uploaded files. *imagesource.Resolver implements it.
type Uploader interface {
	StageUpload(body io.Reader, originalName string) (string, error)
	Cleanup(path string)
}

// JobDispatcher runs background jobs. *task.Dispatcher implements it.
type JobDispatcher interface {
	Dispatch(ctx context.Context, job task.Job) error
}

// TaskHandler handles the task endpoints.
type TaskHandler struct {
	service        service.TaskService
	uploads        Uploader
	dispatcher     JobDispatcher
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewTaskHandler creates a TaskHandler. maxUploadBytes <= 0 disables the
// upload size limit.
func NewTaskHandler(
	svc service.TaskService,
	uploads Uploader,
	dispatcher JobDispatcher,
	maxUploadBytes int64,
	logger *slog.Logger,
) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		service:        svc,
		uploads:        uploads,
		dispatcher:     dispatcher,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "task_handler")),
	}
}

// RegisterRoutes mounts the task endpoints on r.
func (h *TaskHandler) RegisterRoutes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.CreateTask)
		r.Get("/{taskId}", h.GetTask)
		r.Get("/{taskId}/images", h.GetTaskImages)
	})
}

// CreateTask handles POST /tasks. The body is either JSON carrying
// imagePath or a multipart form carrying a file part, never both.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, msgInvalidContentType, err)
		return
	}

	var (
		imagePath string
		staged    bool
	)

	switch mediaType {
	case "application/json":
		imagePath, err = h.readJSONSource(r)
	case "multipart/form-data":
		r.Body = h.limitBody(w, r.Body)
		imagePath, err = h.readMultipartSource(r)
		staged = err == nil
	default:
		respondError(w, r, http.StatusBadRequest, msgInvalidContentType, nil)
		return
	}
	if err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			respondError(w, r, reqErr.status, reqErr.message, reqErr.cause)
			return
		}
		respondWithServiceError(w, r, err)
		return
	}

	created, err := h.service.CreateTask(r.Context(), imagePath)
	if err != nil {
		if staged {
			h.uploads.Cleanup(imagePath)
		}
		respondWithServiceError(w, r, err)
		return
	}

	h.dispatchProcessing(r.Context(), created, staged)

	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(created))
}

// GetTask handles GET /tasks/{taskId}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.GetTask(r.Context(), chi.URLParam(r, "taskId"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(found))
}

// GetTaskImages handles GET /tasks/{taskId}/images.
func (h *TaskHandler) GetTaskImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.service.TaskImages(r.Context(), chi.URLParam(r, "taskId"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, imagesToResponse(images))
}

// dispatchProcessing starts the processing job for created. The response
// does not wait for it; a dispatch failure is only logged.
func (h *TaskHandler) dispatchProcessing(ctx context.Context, created *domain.Task, staged bool) {
	log := logger.FromContextOrDefault(ctx, h.logger)

	job, err := task.NewProcessImageJob(h.service, created.ID, created.OriginalPath, staged)
	if err == nil {
		err = h.dispatcher.Dispatch(ctx, job)
	}
	if err != nil {
		log.Error("failed to dispatch image processing",
			slog.String("task_id", created.ID),
			slog.String("error", err.Error()))
		if staged {
			h.uploads.Cleanup(created.OriginalPath)
		}
	}
}

func (h *TaskHandler) readJSONSource(r *http.Request) (string, error) {
	var req CreateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		if errors.Is(err, shared.ErrEmptyBody) {
			return "", badRequest(msgImagePathRequired, err)
		}
		return "", badRequest(msgInvalidJSON, err)
	}

	req.ImagePath = strings.TrimSpace(req.ImagePath)
	if err := shared.ValidateRequest(req); err != nil {
		return "", badRequest(msgImagePathRequired, err)
	}

	return req.ImagePath, nil
}

// readMultipartSource streams the form, staging the first file part. Any
// staged file is removed again when the form is rejected.
func (h *TaskHandler) readMultipartSource(r *http.Request) (path string, err error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return "", badRequest(msgInvalidMultipart, err)
	}

	defer func() {
		if err != nil && path != "" {
			h.uploads.Cleanup(path)
			path = ""
		}
	}()

	var sawImagePath bool
	for {
		part, perr := reader.NextPart()
		if errors.Is(perr, io.EOF) {
			break
		}
		if perr != nil {
			return path, readError(perr)
		}

		switch {
		case part.FormName() == fileField && part.FileName() != "" && path == "":
			staged, serr := h.uploads.StageUpload(part, part.FileName())
			if serr != nil {
				var tooLarge *http.MaxBytesError
				switch {
				case errors.As(serr, &tooLarge):
					return path, readError(serr)
				case errors.Is(serr, domain.ErrInvalidFormat):
					return path, badRequest(msgOnlyImages, serr)
				default:
					return path, serr
				}
			}
			path = staged

		case part.FormName() == imagePathField:
			value, verr := readField(part)
			if verr != nil {
				return path, readError(verr)
			}
			sawImagePath = sawImagePath || value != ""
		}

		_ = part.Close()
	}

	if path == "" {
		return "", badRequest(msgFileRequired, nil)
	}
	if sawImagePath {
		return path, badRequest(msgImagePathNotAllowed, nil)
	}

	return path, nil
}

func (h *TaskHandler) limitBody(w http.ResponseWriter, body io.ReadCloser) io.ReadCloser {
	if h.maxUploadBytes <= 0 {
		return body
	}
	return http.MaxBytesReader(w, body, h.maxUploadBytes)
}

func readField(part *multipart.Part) (string, error) {
	value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(value)), nil
}

// requestError is a rejection decided by the handler itself.
type requestError struct {
	status  int
	message string
	cause   error
}

func (e *requestError) Error() string {
	return e.message
}

func badRequest(message string, cause error) error {
	return &requestError{status: http.StatusBadRequest, message: message, cause: cause}
}

// readError classifies a failure while reading the request body.
func readError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &requestError{
			status:  http.StatusRequestEntityTooLarge,
			message: http.StatusText(http.StatusRequestEntityTooLarge),
			cause:   err,
		}
	}
	if domain.IsClientError(err) {
		return err
	}
	return badRequest(msgInvalidMultipart, err)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
