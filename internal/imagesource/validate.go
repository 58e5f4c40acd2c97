package imagesource

import (
	"image"
	"os"

	// Decoders for every supported raster format.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kenyilewis/imgtask/internal/domain"
)

// Validate checks that path can be opened and that its header decodes as a
// supported raster image. Failures yield domain.ErrInvalidFormat.
func (r *Resolver) Validate(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return domain.NewInvalidFormatError(err.Error(), err)
	}
	defer func() { _ = f.Close() }()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return domain.NewInvalidFormatError(err.Error(), err)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return domain.NewInvalidFormatError("image has no pixels", nil)
	}

	return nil
}
