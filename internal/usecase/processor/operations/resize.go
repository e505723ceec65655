package operations

import (
	"context"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

type Resizer struct{}

func NewResizer() *Resizer {
	return &Resizer{}
}

// Fit scales img down so it fits into maxWidth x maxHeight, keeping the
// aspect ratio. Images that already fit are returned unchanged.
func (r *Resizer) Fit(ctx context.Context, img image.Image, maxWidth, maxHeight int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, fmt.Errorf("max dimensions must be positive, got %dx%d", maxWidth, maxHeight)
	}

	width, height := FitDimensions(img.Bounds().Dx(), img.Bounds().Dy(), maxWidth, maxHeight)
	if width == img.Bounds().Dx() && height == img.Bounds().Dy() {
		return img, nil
	}

	return resizeImage(img, img.Bounds(), width, height), nil
}

// FitDimensions returns the largest size not exceeding the box that keeps the
// source aspect ratio. It never upscales.
func FitDimensions(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	ratio := float64(width) / float64(height)
	newWidth, newHeight := maxWidth, int(float64(maxWidth)/ratio)
	if newHeight > maxHeight {
		newWidth, newHeight = int(float64(maxHeight)*ratio), maxHeight
	}

	return max(newWidth, 1), max(newHeight, 1)
}

func resizeImage(img image.Image, src image.Rectangle, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, src, xdraw.Over, nil)
	return dst
}
