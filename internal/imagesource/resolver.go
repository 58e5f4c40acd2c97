package imagesource

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"regexp"

	"github.com/hashicorp/go-cleanhttp"
)

var remotePattern = regexp.MustCompile(`(?i)^https?://`)

// Resolver acquires, validates and releases image sources.
// It is safe for concurrent use.
type Resolver struct {
	tempDir string
	client  *http.Client
	logger  *slog.Logger
}

// Staged is a local working copy of an image reference.
type Staged struct {
	// Path is the local file to read.
	Path string
	// Temp reports whether Path is a temporary file owned by the caller.
	Temp bool
}

// NewResolver creates a Resolver writing temporary files into tempDir.
// A nil client is replaced with a pooled client without a timeout, and a
// nil logger with slog.Default().
func NewResolver(tempDir string, client *http.Client, logger *slog.Logger) *Resolver {
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		tempDir: tempDir,
		client:  client,
		logger:  logger.With(slog.String("component", "image_source")),
	}
}

// TempDir returns the directory that holds downloaded and uploaded files.
func (r *Resolver) TempDir() string {
	return r.tempDir
}

// IsRemote reports whether ref is an http or https URL. The scheme match is
// case-insensitive; everything else, including the empty string, is local.
func IsRemote(ref string) bool {
	return remotePattern.MatchString(ref)
}

// IsRemote reports whether ref is an http or https URL.
func (r *Resolver) IsRemote(ref string) bool {
	return IsRemote(ref)
}

// Stage resolves ref to a local working path. Remote references are
// downloaded and flagged as temporary; local references are checked and
// returned as-is.
func (r *Resolver) Stage(ctx context.Context, ref string) (Staged, error) {
	if IsRemote(ref) {
		path, err := r.AcquireRemote(ctx, ref)
		if err != nil {
			return Staged{}, err
		}
		return Staged{Path: path, Temp: true}, nil
	}

	path, err := r.AcquireLocal(ref)
	if err != nil {
		return Staged{}, err
	}
	return Staged{Path: path}, nil
}

// Release removes the staged file when it is temporary.
func (r *Resolver) Release(s Staged) {
	if s.Temp {
		r.Cleanup(s.Path)
	}
}

// Cleanup deletes path on a best effort basis. Missing files and permission
// failures are logged at debug level and never returned.
func (r *Resolver) Cleanup(path string) {
	if path == "" {
		return
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		r.logger.Debug("failed to remove temporary file",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}

func (r *Resolver) ensureTempDir() error {
	return os.MkdirAll(r.tempDir, 0o755)
}
