package imagesource

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kenyilewis/imgtask/internal/domain"
)

// DefaultExtension is used when the content type has no known extension.
const DefaultExtension = ".jpg"

var contentTypeExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/tiff": ".tiff",
	"image/bmp":  ".bmp",
}

// ExtensionForContentType maps an image media type to a file extension,
// falling back to DefaultExtension. Parameters such as charset are ignored.
func ExtensionForContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	if ext, ok := contentTypeExtensions[mediaType]; ok {
		return ext
	}
	return DefaultExtension
}

// AcquireRemote downloads url into a new temporary file and returns its path.
// Non-2xx responses, transport failures and responses that do not declare an
// image content type yield domain.ErrDownloadFailed.
func (r *Resolver) AcquireRemote(ctx context.Context, url string) (string, error) {
	log := r.logger.With(slog.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", domain.NewDownloadError(err.Error(), err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		log.Debug("download request failed", slog.String("error", err.Error()))
		return "", domain.NewDownloadError(err.Error(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusText := http.StatusText(resp.StatusCode)
		if statusText == "" {
			statusText = resp.Status
		}
		return "", domain.NewDownloadError(statusText, nil)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return "", domain.NewDownloadError("URL does not point to a valid image", nil)
	}

	if err := r.ensureTempDir(); err != nil {
		return "", domain.NewDownloadError(err.Error(), err)
	}

	path := filepath.Join(r.tempDir, randomName()+ExtensionForContentType(contentType))
	if err := writeFile(path, resp.Body); err != nil {
		return "", domain.NewDownloadError(err.Error(), err)
	}

	log.Debug("downloaded remote image", slog.String("path", path))
	return path, nil
}

// randomName returns a collision-resistant file name without extension.
func randomName() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:])
}

// writeFile streams src into a new file at path, removing it on failure.
func writeFile(path string, src io.Reader) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return err
	}

	return nil
}
