package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kenyilewis/imgtask/internal/api/middleware"
	"github.com/kenyilewis/imgtask/internal/domain"
	"github.com/kenyilewis/imgtask/internal/imagesource"
	"github.com/kenyilewis/imgtask/internal/mocks"
	"github.com/kenyilewis/imgtask/internal/platform/logger"
	"github.com/kenyilewis/imgtask/internal/task"
	"github.com/stretchr/testify/require"
)

// recordingDispatcher keeps dispatched jobs so tests can run them.
type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []task.Job
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, job task.Job) error {
	if d.err != nil {
		return d.err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
	return nil
}

func (d *recordingDispatcher) Jobs() []task.Job {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]task.Job(nil), d.jobs...)
}

type handlerFixture struct {
	svc        *mocks.MockTaskService
	dispatcher *recordingDispatcher
	tempDir    string
	router     http.Handler
}

func newHandlerFixture(t *testing.T, maxUpload int64) *handlerFixture {
	t.Helper()

	log, _ := logger.NewTestLogger(t)
	tempDir := t.TempDir()

	f := &handlerFixture{
		svc:        &mocks.MockTaskService{},
		dispatcher: &recordingDispatcher{},
		tempDir:    tempDir,
	}

	uploads := imagesource.NewResolver(tempDir, nil, log)
	h := NewTaskHandler(f.svc, uploads, f.dispatcher, maxUpload, log)

	r := chi.NewRouter()
	r.Use(middleware.NewTraceMiddleware(log))
	h.RegisterRoutes(r)
	f.router = r

	return f
}

func (f *handlerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *handlerFixture) tempFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.tempDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func pendingTask(id, path string) *domain.Task {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	return &domain.Task{
		ID:           id,
		Status:       domain.TaskStatusPending,
		Price:        domain.Price(1250),
		OriginalPath: path,
		Images:       []domain.TaskImage{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type formPart struct {
	field    string
	filename string
	content  []byte
}

func multipartRequest(t *testing.T, parts ...formPart) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		var (
			w   io.Writer
			err error
		)
		if p.filename != "" {
			w, err = mw.CreateFormFile(p.field, p.filename)
		} else {
			w, err = mw.CreateFormField(p.field)
		}
		require.NoError(t, err)
		_, err = w.Write(p.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/tasks", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
