package media

import (
	"context"

	"course-media/internal/domain"
	"course-media/internal/usecase/processor"
)

type imageRepository interface {
	Save(ctx context.Context, img *domain.CourseImage) error
	GetByID(ctx context.Context, id string) (*domain.CourseImage, error)
	ListByCourse(ctx context.Context, courseID string, limit, offset int) ([]domain.CourseImage, error)
	CountByCourse(ctx context.Context, courseID string) (int, error)
	MarkDeleted(ctx context.Context, id string) error
}

type imagePreparer interface {
	Prepare(ctx context.Context, data []byte) (*processor.Prepared, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, event *domain.ImageEvent) error
}
