package imagesource

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/kenyilewis/imgtask/internal/domain"
)

// sniffLen is the number of leading bytes inspected to detect the media type.
const sniffLen = 3072

// StageUpload writes an uploaded body into a new temporary file and returns
// its path. The body is sniffed first; anything that is not an image yields
// domain.ErrInvalidFormat and nothing is written. The extension comes from
// originalName, or from the detected type when the name has none.
func (r *Resolver) StageUpload(body io.Reader, originalName string) (string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", domain.NewInvalidFormatError(err.Error(), err)
	}
	head = head[:n]

	mt := mimetype.Detect(head)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", domain.NewInvalidFormatError("uploaded file is not an image ("+mt.String()+")", nil)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = mt.Extension()
	}

	if err := r.ensureTempDir(); err != nil {
		return "", err
	}

	path := filepath.Join(r.tempDir, randomName()+ext)
	if err := writeFile(path, io.MultiReader(bytes.NewReader(head), body)); err != nil {
		return "", err
	}

	r.logger.Debug("staged uploaded image",
		slog.String("path", path),
		slog.String("detected_type", mt.String()))
	return path, nil
}
