package operations

import (
	"context"
	"fmt"
	"image"
)

type Thumbnailer struct{}

func NewThumbnailer() *Thumbnailer {
	return &Thumbnailer{}
}

// Square crops the centred square of img and scales it to size x size.
func (t *Thumbnailer) Square(ctx context.Context, img image.Image, size int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("size must be a positive number")
	}

	return resizeImage(img, centerSquare(img.Bounds()), size, size), nil
}

func centerSquare(bounds image.Rectangle) image.Rectangle {
	origWidth := bounds.Dx()
	origHeight := bounds.Dy()

	var cropX, cropY, cropSize int
	if origWidth > origHeight {
		cropSize = origHeight
		cropX = (origWidth - origHeight) / 2
	} else {
		cropSize = origWidth
		cropY = (origHeight - origWidth) / 2
	}

	origin := bounds.Min.Add(image.Pt(cropX, cropY))
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(cropSize, cropSize))}
}
