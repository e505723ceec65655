package media

import (
	"context"

	"course-media/internal/domain"
	media_uc "course-media/internal/usecase/media"
)

type mediaUsecase interface {
	Upload(ctx context.Context, cmd media_uc.UploadCommand) (*domain.CourseImage, error)
	Get(ctx context.Context, id string) (*domain.CourseImage, error)
	List(ctx context.Context, courseID string, limit, offset int) (*media_uc.ListResult, error)
	Delete(ctx context.Context, id string) error
	StorageStatus() media_uc.StorageStatus
}
