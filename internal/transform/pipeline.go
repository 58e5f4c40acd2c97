package transform

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/kenyilewis/imgtask/internal/domain"

	// imaging registers the other decoders itself.
	_ "golang.org/x/image/webp"
)

// Widths lists the variant width bounds, in output order.
var Widths = []int{1024, 800}

// Variant is one encoded, persisted rendition of a source image.
type Variant struct {
	Resolution string
	Path       string
	MD5        string
	Bytes      []byte
}

// Sink receives every variant after it has been written locally.
// key is the variant path relative to the output directory, slash separated.
type Sink interface {
	Store(ctx context.Context, key string, v Variant) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSink mirrors every written variant to s. Sink failures are logged and
// never fail the transform.
func WithSink(s Sink) Option {
	return func(p *Pipeline) {
		p.sink = s
	}
}

// WithJPEGQuality sets the quality used for JPEG output (1-100).
func WithJPEGQuality(q int) Option {
	return func(p *Pipeline) {
		p.encodeOpts = append(p.encodeOpts, imaging.JPEGQuality(q))
	}
}

// Pipeline resizes and writes variants under an output directory.
// It is safe for concurrent use.
type Pipeline struct {
	outputDir  string
	logger     *slog.Logger
	sink       Sink
	encodeOpts []imaging.EncodeOption
}

// NewPipeline creates a Pipeline writing below outputDir.
func NewPipeline(outputDir string, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		outputDir: outputDir,
		logger:    logger.With(slog.String("component", "transform")),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OutputDir returns the root directory variants are written to.
func (p *Pipeline) OutputDir() string {
	return p.outputDir
}

// Transform decodes the image at path and produces one variant per entry in
// Widths, in order. Any decode, encode or write failure yields
// domain.ErrTransformFailed; variants written before the failure are kept.
func (p *Pipeline) Transform(ctx context.Context, path string) ([]Variant, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, domain.NewTransformError("decode "+filepath.Base(path)+": "+err.Error(), err)
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)

	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		// The path keeps the source extension even when the bytes are PNG.
		format = imaging.PNG
	}

	log := p.logger.With(slog.String("source", path))
	variants := make([]Variant, 0, len(Widths))

	for _, width := range Widths {
		v, err := p.variant(src, width, base, ext, format)
		if err != nil {
			return nil, err
		}

		log.Debug("variant written",
			slog.String("resolution", v.Resolution),
			slog.String("path", v.Path),
			slog.String("md5", v.MD5))

		p.mirror(ctx, v)
		variants = append(variants, v)
	}

	return variants, nil
}

func (p *Pipeline) variant(src image.Image, width int, base, ext string, format imaging.Format) (Variant, error) {
	resized := fitWidth(src, width)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, p.encodeOpts...); err != nil {
		return Variant{}, domain.NewTransformError("encode "+strconv.Itoa(width)+": "+err.Error(), err)
	}

	sum := md5.Sum(buf.Bytes())
	hash := hex.EncodeToString(sum[:])
	resolution := strconv.Itoa(width)

	dir := filepath.Join(p.outputDir, base, resolution)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Variant{}, domain.NewTransformError(err.Error(), err)
	}

	out := filepath.Join(dir, hash+ext)
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return Variant{}, domain.NewTransformError(err.Error(), err)
	}

	return Variant{
		Resolution: resolution,
		Path:       out,
		MD5:        hash,
		Bytes:      buf.Bytes(),
	}, nil
}

// fitWidth scales src down to width preserving aspect ratio. Images already
// within the bound are copied unchanged.
func fitWidth(src image.Image, width int) image.Image {
	if src.Bounds().Dx() <= width {
		return imaging.Clone(src)
	}
	return imaging.Resize(src, width, 0, imaging.Lanczos)
}

func (p *Pipeline) mirror(ctx context.Context, v Variant) {
	if p.sink == nil {
		return
	}

	key, err := filepath.Rel(p.outputDir, v.Path)
	if err != nil {
		key = filepath.Base(v.Path)
	}

	if err := p.sink.Store(ctx, filepath.ToSlash(key), v); err != nil {
		p.logger.Warn("failed to mirror variant",
			slog.String("path", v.Path),
			slog.String("error", err.Error()))
	}
}
