package service_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kenyilewis/imgtask/internal/imagesource"
	"github.com/kenyilewis/imgtask/internal/mocks"
	"github.com/kenyilewis/imgtask/internal/service"
	"github.com/kenyilewis/imgtask/internal/transform"
	"github.com/stretchr/testify/require"
)

// spySource wraps a real resolver and records remote acquisitions and cleanups.
type spySource struct {
	*imagesource.Resolver

	mu       sync.Mutex
	acquired []string
	cleaned  []string
}

func (s *spySource) AcquireRemote(ctx context.Context, url string) (string, error) {
	path, err := s.Resolver.AcquireRemote(ctx, url)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		s.acquired = append(s.acquired, path)
	}
	return path, err
}

func (s *spySource) Stage(ctx context.Context, ref string) (imagesource.Staged, error) {
	if !imagesource.IsRemote(ref) {
		return s.Resolver.Stage(ctx, ref)
	}
	path, err := s.AcquireRemote(ctx, ref)
	if err != nil {
		return imagesource.Staged{}, err
	}
	return imagesource.Staged{Path: path, Temp: true}, nil
}

func (s *spySource) Cleanup(path string) {
	s.mu.Lock()
	s.cleaned = append(s.cleaned, path)
	s.mu.Unlock()
	s.Resolver.Cleanup(path)
}

func (s *spySource) Acquired() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.acquired...)
}

func (s *spySource) Cleaned() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cleaned...)
}

type fixture struct {
	tasks       *mocks.TaskStore
	images      *mocks.ImageStore
	source      *spySource
	transformer service.Transformer
	svc         service.TaskService
	outputDir   string
	tempDir     string
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newFixture builds a service over in-memory stores and a real resolver.
// A nil transformer selects the real pipeline writing into a temp directory.
func newFixture(t *testing.T, transformer service.Transformer) *fixture {
	t.Helper()

	root := t.TempDir()
	f := &fixture{
		tasks:     mocks.NewTaskStore(),
		images:    mocks.NewImageStore(),
		outputDir: filepath.Join(root, "output"),
		tempDir:   filepath.Join(root, "output", "temp"),
	}
	f.source = &spySource{Resolver: imagesource.NewResolver(f.tempDir, nil, quietLogger())}

	if transformer == nil {
		transformer = transform.NewPipeline(f.outputDir, quietLogger())
	}
	f.transformer = transformer

	svc, err := service.NewTaskService(f.tasks, f.images, f.source, f.transformer, quietLogger())
	require.NoError(t, err)
	f.svc = svc
	return f
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.NRGBA{G: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeImage(t *testing.T, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, pngBytes(t, w, h), 0o644))
	return path
}

func serveImage(t *testing.T, contentType string, status int, body []byte) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/images/photo.png"
}

func tempFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
