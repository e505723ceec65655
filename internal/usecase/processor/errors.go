package processor

import "errors"

var (
	ErrEmptyImage         = errors.New("image is empty")
	ErrUnsupportedFormat  = errors.New("unsupported image format")
	ErrDecodeImage        = errors.New("failed to decode image")
	ErrInvalidImageBounds = errors.New("image dimensions out of bounds")
)
