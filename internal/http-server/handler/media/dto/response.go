package dto

import "course-media/internal/domain"

type ListResponse struct {
	Images []domain.CourseImage `json:"images"`
	Total  int                  `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

type StorageStatusResponse struct {
	Provider   string `json:"provider"`
	Configured bool   `json:"configured"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
