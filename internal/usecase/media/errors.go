package media

import "errors"

var (
	ErrInvalidCommand       = errors.New("invalid command")
	ErrInvalidImage         = errors.New("invalid image")
	ErrFileTooLarge         = errors.New("file too large")
	ErrImageNotFound        = errors.New("image not found")
	ErrStorageNotConfigured = errors.New("storage is not configured")
	ErrBackendMismatch      = errors.New("image is stored in another backend")
)
