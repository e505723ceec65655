package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"course-media/internal/domain"
	media_repo "course-media/internal/repository/media"
	media_db "course-media/internal/repository/media/db"
	"course-media/internal/usecase/processor"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// courseIDPattern keeps a course id a single path segment under the course
// scope: no separators and no "." or ".." segments.
var courseIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

func validCourseID(fl validator.FieldLevel) bool {
	return courseIDPattern.MatchString(fl.Field().String())
}

type UploadCommand struct {
	CourseID     string `validate:"required,max=64,course_id"`
	InstructorID string `validate:"omitempty,max=64"`
	UploadedBy   string `validate:"required,max=128"`
	FileName     string `validate:"required,max=255"`
	Data         []byte `validate:"required,min=1"`
	Caption      domain.LocalizedText
}

type ListResult struct {
	Images []domain.CourseImage
	Total  int
	Limit  int
	Offset int
}

type StorageStatus struct {
	Provider   string
	Configured bool
}

type MediaUsecase struct {
	repo          imageRepository
	storage       media_repo.Provider
	preparer      imagePreparer
	publisher     eventPublisher
	validate      *validator.Validate
	maxUploadSize int64
	logger        *zlog.Zerolog
	now           func() time.Time
}

func NewMediaUsecase(repo imageRepository, storage media_repo.Provider, preparer imagePreparer, publisher eventPublisher, maxUploadSize int64, logger *zlog.Zerolog) *MediaUsecase {
	if maxUploadSize <= 0 {
		maxUploadSize = domain.DefaultMaxUploadSize
	}
	validate := validator.New()
	_ = validate.RegisterValidation("course_id", validCourseID)

	return &MediaUsecase{
		repo:          repo,
		storage:       storage,
		preparer:      preparer,
		publisher:     publisher,
		validate:      validate,
		maxUploadSize: maxUploadSize,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (u *MediaUsecase) Upload(ctx context.Context, cmd UploadCommand) (*domain.CourseImage, error) {
	if err := u.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	if int64(len(cmd.Data)) > u.maxUploadSize {
		return nil, ErrFileTooLarge
	}
	if !u.storage.IsConfigured() {
		return nil, ErrStorageNotConfigured
	}

	prepared, err := u.preparer.Prepare(ctx, cmd.Data)
	if err != nil {
		if errors.Is(err, processor.ErrEmptyImage) || errors.Is(err, processor.ErrUnsupportedFormat) ||
			errors.Is(err, processor.ErrDecodeImage) || errors.Is(err, processor.ErrInvalidImageBounds) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		return nil, fmt.Errorf("failed to prepare image: %w", err)
	}

	id := uuid.New().String()
	paths := media_repo.ImagePaths(domain.CourseScopePrefix+cmd.CourseID, id+prepared.Format.Extension())
	now := u.now()

	meta := media_repo.Metadata{
		CourseID:     cmd.CourseID,
		InstructorID: cmd.InstructorID,
		UploadedBy:   cmd.UploadedBy,
		UploadedAt:   now.Format(time.RFC3339),
	}
	file := media_repo.FileInfo{
		Name:        displayName(cmd.FileName),
		ContentType: prepared.ContentType(),
	}

	result, err := u.storage.UploadFile(ctx, file, paths.StoragePath, paths.ThumbnailPath, prepared.Primary, prepared.Thumbnail, meta)
	if err != nil {
		if errors.Is(err, media_repo.ErrThumbnailWrite) {
			u.publish(ctx, &domain.ImageEvent{
				Type:        domain.EventImageOrphaned,
				CourseID:    cmd.CourseID,
				StoragePath: paths.StoragePath,
				Backend:     u.storage.Name(),
				Reason:      err.Error(),
				OccurredAt:  now,
			})
		}
		u.logger.Error().Err(err).Str("course_id", cmd.CourseID).Str("path", paths.StoragePath).Msg("Failed to store image")
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	img := &domain.CourseImage{
		ID:            id,
		CourseID:      cmd.CourseID,
		InstructorID:  cmd.InstructorID,
		UploadedBy:    cmd.UploadedBy,
		FileName:      result.FileName,
		ContentType:   file.ContentType,
		Size:          int64(len(prepared.Primary)),
		StoragePath:   result.StoragePath,
		ThumbnailPath: paths.ThumbnailPath,
		URL:           result.URL,
		ThumbnailURL:  result.ThumbnailURL,
		Caption:       cmd.Caption,
		Backend:       u.storage.Name(),
		Status:        domain.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := u.repo.Save(ctx, img); err != nil {
		if delErr := u.storage.DeleteFile(ctx, img.StoragePath); delErr != nil {
			u.logger.Error().Err(delErr).Str("path", img.StoragePath).Msg("Failed to remove objects after save failure")
		}
		return nil, fmt.Errorf("failed to save image metadata: %w", err)
	}

	u.publish(ctx, &domain.ImageEvent{
		Type:        domain.EventImageUploaded,
		ImageID:     img.ID,
		CourseID:    img.CourseID,
		StoragePath: img.StoragePath,
		Backend:     img.Backend,
		OccurredAt:  now,
	})

	u.logger.Info().
		Str("image_id", img.ID).
		Str("course_id", img.CourseID).
		Str("backend", img.Backend).
		Int64("size", img.Size).
		Msg("Course image uploaded")

	return img, nil
}

func (u *MediaUsecase) Get(ctx context.Context, id string) (*domain.CourseImage, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrImageNotFound
	}

	img, err := u.repo.GetByID(ctx, id)
	if errors.Is(err, media_db.ErrImageNotFound) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return img, nil
}

func (u *MediaUsecase) List(ctx context.Context, courseID string, limit, offset int) (*ListResult, error) {
	if strings.TrimSpace(courseID) == "" {
		return nil, fmt.Errorf("%w: course id is required", ErrInvalidCommand)
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	images, err := u.repo.ListByCourse(ctx, courseID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	total, err := u.repo.CountByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to count images: %w", err)
	}

	return &ListResult{Images: images, Total: total, Limit: limit, Offset: offset}, nil
}

func (u *MediaUsecase) Delete(ctx context.Context, id string) error {
	img, err := u.Get(ctx, id)
	if err != nil {
		return err
	}
	if !u.storage.IsConfigured() {
		return ErrStorageNotConfigured
	}
	if img.Backend != u.storage.Name() {
		return fmt.Errorf("%w: %s", ErrBackendMismatch, img.Backend)
	}

	if err := u.storage.DeleteFile(ctx, img.StoragePath); err != nil {
		u.logger.Error().Err(err).Str("image_id", id).Str("path", img.StoragePath).Msg("Failed to delete image objects")
		return fmt.Errorf("failed to delete image objects: %w", err)
	}

	if err := u.repo.MarkDeleted(ctx, id); err != nil {
		if errors.Is(err, media_db.ErrImageNotFound) {
			return ErrImageNotFound
		}
		return fmt.Errorf("failed to update image status to deleted: %w", err)
	}

	u.publish(ctx, &domain.ImageEvent{
		Type:        domain.EventImageDeleted,
		ImageID:     img.ID,
		CourseID:    img.CourseID,
		StoragePath: img.StoragePath,
		Backend:     img.Backend,
		OccurredAt:  u.now(),
	})

	u.logger.Info().Str("image_id", id).Msg("Course image deleted")
	return nil
}

func (u *MediaUsecase) StorageStatus() StorageStatus {
	return StorageStatus{
		Provider:   u.storage.Name(),
		Configured: u.storage.IsConfigured(),
	}
}

// publish is best effort; the stored record stays authoritative.
func (u *MediaUsecase) publish(ctx context.Context, event *domain.ImageEvent) {
	if err := u.publisher.Publish(ctx, event); err != nil {
		u.logger.Error().
			Err(err).
			Str("event", string(event.Type)).
			Str("path", event.StoragePath).
			Msg("Failed to publish image event")
	}
}

func displayName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return "image"
	}
	return name
}
