package domain

import "time"

type CourseImage struct {
	ID            string        `json:"id"`
	CourseID      string        `json:"courseId"`
	InstructorID  string        `json:"instructorId,omitempty"`
	UploadedBy    string        `json:"uploadedBy"`
	FileName      string        `json:"fileName"`
	ContentType   string        `json:"contentType"`
	Size          int64         `json:"size"`
	StoragePath   string        `json:"storagePath"`
	ThumbnailPath string        `json:"thumbnailPath"`
	URL           string        `json:"url"`
	ThumbnailURL  string        `json:"thumbnailUrl"`
	Caption       LocalizedText `json:"caption"`
	Backend       string        `json:"backend"`
	Status        ImageStatus   `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

type ImageStatus string

const (
	StatusActive  ImageStatus = "active"
	StatusDeleted ImageStatus = "deleted"
)

type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatGIF  ImageFormat = "gif"
)

// ContentType returns the MIME type objects of this format are stored with.
func (f ImageFormat) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatGIF:
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

// Extension returns the file extension, including the dot.
func (f ImageFormat) Extension() string {
	switch f {
	case FormatPNG:
		return ".png"
	case FormatGIF:
		return ".gif"
	default:
		return ".jpg"
	}
}

const (
	DefaultMaxUploadSize = 10 << 20
	DefaultMaxWidth      = 1920
	DefaultMaxHeight     = 1080
	DefaultThumbnailSize = 300
	DefaultJPEGQuality   = 85
	DefaultMaxPixels     = 50_000_000
)

const CourseScopePrefix = "courses/"
