package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"course-media/internal/domain"
	"course-media/internal/usecase/processor/operations"

	"github.com/wb-go/wbf/zlog"
)

type Options struct {
	MaxWidth      int
	MaxHeight     int
	ThumbnailSize int
	JPEGQuality   int
	// MaxPixels caps width*height of an upload before it is decoded.
	MaxPixels int64
}

func (o Options) withDefaults() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = domain.DefaultMaxWidth
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = domain.DefaultMaxHeight
	}
	if o.ThumbnailSize <= 0 {
		o.ThumbnailSize = domain.DefaultThumbnailSize
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = domain.DefaultMaxPixels
	}
	if o.JPEGQuality <= 0 || o.JPEGQuality > 100 {
		o.JPEGQuality = domain.DefaultJPEGQuality
	}
	return o
}

// Prepared holds the two encoded buffers handed to the storage provider.
type Prepared struct {
	Primary   []byte
	Thumbnail []byte
	Format    domain.ImageFormat
	Width     int
	Height    int
}

func (p *Prepared) ContentType() string {
	return p.Format.ContentType()
}

type ImageProcessor struct {
	resizer     *operations.Resizer
	thumbnailer *operations.Thumbnailer
	opts        Options
	logger      *zlog.Zerolog
}

func NewImageProcessor(opts Options, logger *zlog.Zerolog) *ImageProcessor {
	return &ImageProcessor{
		resizer:     operations.NewResizer(),
		thumbnailer: operations.NewThumbnailer(),
		opts:        opts.withDefaults(),
		logger:      logger,
	}
}

// Prepare decodes an upload and produces the primary and thumbnail buffers.
// The source format is kept.
func (p *ImageProcessor) Prepare(ctx context.Context, data []byte) (*Prepared, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	if err := p.checkDimensions(data); err != nil {
		return nil, err
	}

	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, p.decodeError(err, len(data))
	}
	if img.Bounds().Empty() {
		return nil, ErrInvalidImageBounds
	}

	format, err := parseFormat(name)
	if err != nil {
		return nil, err
	}

	primary, err := p.resizer.Fit(ctx, img, p.opts.MaxWidth, p.opts.MaxHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to resize image: %w", err)
	}

	thumbnail, err := p.thumbnailer.Square(ctx, img, p.opts.ThumbnailSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create thumbnail: %w", err)
	}

	primaryData, err := p.encode(primary, format)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	thumbnailData, err := p.encode(thumbnail, format)
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	p.logger.Debug().
		Str("format", string(format)).
		Int("original_width", img.Bounds().Dx()).
		Int("original_height", img.Bounds().Dy()).
		Int("width", primary.Bounds().Dx()).
		Int("height", primary.Bounds().Dy()).
		Int("primary_size", len(primaryData)).
		Int("thumbnail_size", len(thumbnailData)).
		Msg("Image prepared")

	return &Prepared{
		Primary:   primaryData,
		Thumbnail: thumbnailData,
		Format:    format,
		Width:     primary.Bounds().Dx(),
		Height:    primary.Bounds().Dy(),
	}, nil
}

// checkDimensions reads only the header so oversized images are rejected
// before any pixel buffer is allocated.
func (p *ImageProcessor) checkDimensions(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return p.decodeError(err, len(data))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ErrInvalidImageBounds
	}

	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > p.opts.MaxPixels {
		p.logger.Warn().
			Int("width", cfg.Width).
			Int("height", cfg.Height).
			Int64("max_pixels", p.opts.MaxPixels).
			Msg("Image exceeds pixel limit")
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImageBounds, cfg.Width, cfg.Height, p.opts.MaxPixels)
	}
	return nil
}

func (p *ImageProcessor) decodeError(err error, size int) error {
	if errors.Is(err, image.ErrFormat) {
		return ErrUnsupportedFormat
	}
	p.logger.Warn().Err(err).Int("size", size).Msg("Failed to decode image")
	return fmt.Errorf("%w: %v", ErrDecodeImage, err)
}

func (p *ImageProcessor) encode(img image.Image, format domain.ImageFormat) ([]byte, error) {
	buf := new(bytes.Buffer)

	var err error
	switch format {
	case domain.FormatPNG:
		err = png.Encode(buf, img)
	case domain.FormatGIF:
		err = gif.Encode(buf, img, nil)
	default:
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: p.opts.JPEGQuality})
	}
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func parseFormat(name string) (domain.ImageFormat, error) {
	switch name {
	case "jpeg":
		return domain.FormatJPEG, nil
	case "png":
		return domain.FormatPNG, nil
	case "gif":
		return domain.FormatGIF, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}
