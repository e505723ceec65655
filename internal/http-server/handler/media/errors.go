package media

import "errors"

var (
	ErrMissingUser      = errors.New("X-User-ID header is required")
	ErrMissingFile      = errors.New("file is required")
	ErrInvalidCaption   = errors.New("caption must be a string or an object of translations")
	ErrInvalidPaginator = errors.New("limit and offset must be non-negative integers")
)
