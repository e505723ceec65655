// Package media defines the storage contract shared by every object-storage
// backend that holds course images and their thumbnails.
package media

import "context"

// FileInfo describes the uploaded file as the caller saw it.
type FileInfo struct {
	// Name is the original display name; it is echoed back in UploadResult.
	Name string
	// ContentType is derived by the caller and applied to both objects.
	ContentType string
}

// Metadata is attached to both objects for traceability only.
type Metadata struct {
	CourseID     string
	InstructorID string
	UploadedBy   string
	UploadedAt   string
}

// Map returns the backend object metadata representation.
func (m Metadata) Map() map[string]string {
	return map[string]string{
		"courseId":     m.CourseID,
		"instructorId": m.InstructorID,
		"uploadedBy":   m.UploadedBy,
		"uploadedAt":   m.UploadedAt,
	}
}

// UploadResult is returned by a successful UploadFile.
type UploadResult struct {
	URL          string `json:"url"`
	FileName     string `json:"fileName"`
	StoragePath  string `json:"storagePath"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// Provider is implemented by every storage backend.
//
// Implementations are long-lived, hold no per-upload state and must be safe
// for concurrent use.
type Provider interface {
	// UploadFile writes the primary object and then the thumbnail object.
	// The two writes are sequential and not atomic: a thumbnail failure
	// leaves the primary object in place and returns ErrThumbnailWrite.
	UploadFile(ctx context.Context, file FileInfo, storagePath, thumbnailPath string, primary, thumbnail []byte, meta Metadata) (*UploadResult, error)

	// DeleteFile removes the primary object and its conventional thumbnail.
	// Missing objects are not an error.
	DeleteFile(ctx context.Context, storagePath string) error

	// PublicURL builds the public URL for a path without any I/O.
	PublicURL(storagePath string) string

	// IsConfigured reports whether every required constructor field is set.
	IsConfigured() bool

	// Name is the backend display name used in error messages.
	Name() string
}
