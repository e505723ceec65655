package domain

import "time"

type EventType string

const (
	EventImageUploaded EventType = "image.uploaded"
	EventImageDeleted  EventType = "image.deleted"
	// EventImageOrphaned reports a primary object left behind by an upload
	// whose thumbnail write failed.
	EventImageOrphaned EventType = "image.orphaned"
)

type ImageEvent struct {
	Type        EventType `json:"type"`
	ImageID     string    `json:"imageId,omitempty"`
	CourseID    string    `json:"courseId"`
	StoragePath string    `json:"storagePath"`
	Backend     string    `json:"backend"`
	Reason      string    `json:"reason,omitempty"`
	// Attempt counts how many times a cleanup event was requeued.
	Attempt     int       `json:"attempt,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}
