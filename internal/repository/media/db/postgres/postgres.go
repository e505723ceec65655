package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"course-media/internal/domain"
	"course-media/internal/repository/media/db"

	"github.com/lib/pq"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
)

const uniqueViolation = "23505"

const imageColumns = `
	id, course_id, instructor_id, uploaded_by, file_name, content_type, size,
	storage_path, thumbnail_path, url, thumbnail_url, caption, backend,
	status, created_at, updated_at`

type ImagesRepository struct {
	db      *dbpg.DB
	retries retry.Strategy
}

func NewImagesRepository(db *dbpg.DB, retries retry.Strategy) *ImagesRepository {
	return &ImagesRepository{
		db:      db,
		retries: retries,
	}
}

func (r *ImagesRepository) Save(ctx context.Context, img *domain.CourseImage) error {
	query := `INSERT INTO course_images (` + imageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	caption, err := encodeCaption(img.Caption)
	if err != nil {
		return fmt.Errorf("failed to encode caption: %w", err)
	}

	_, err = r.db.ExecWithRetry(ctx, r.retries, query,
		img.ID,
		img.CourseID,
		img.InstructorID,
		img.UploadedBy,
		img.FileName,
		img.ContentType,
		img.Size,
		img.StoragePath,
		img.ThumbnailPath,
		img.URL,
		img.ThumbnailURL,
		caption,
		img.Backend,
		img.Status,
		img.CreatedAt,
		img.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return db.ErrDuplicateKey
		}
		return fmt.Errorf("failed to save image: %w", err)
	}

	return nil
}

func (r *ImagesRepository) GetByID(ctx context.Context, id string) (*domain.CourseImage, error) {
	query := `SELECT ` + imageColumns + `
		FROM course_images
		WHERE id = $1 AND status != $2`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, id, domain.StatusDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query image: %w", err)
	}

	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan image: %w", err)
	}

	return img, nil
}

func (r *ImagesRepository) ListByCourse(ctx context.Context, courseID string, limit, offset int) ([]domain.CourseImage, error) {
	query := `SELECT ` + imageColumns + `
		FROM course_images
		WHERE course_id = $1 AND status != $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.db.QueryWithRetry(ctx, r.retries, query, courseID, domain.StatusDeleted, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	images := make([]domain.CourseImage, 0, limit)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, *img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating images: %w", err)
	}

	return images, nil
}

func (r *ImagesRepository) CountByCourse(ctx context.Context, courseID string) (int, error) {
	query := `SELECT COUNT(*) FROM course_images WHERE course_id = $1 AND status != $2`

	row, err := r.db.QueryRowWithRetry(ctx, r.retries, query, courseID, domain.StatusDeleted)
	if err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to scan count: %w", err)
	}

	return count, nil
}

func (r *ImagesRepository) MarkDeleted(ctx context.Context, id string) error {
	query := `UPDATE course_images SET status = $1, updated_at = $2 WHERE id = $3 AND status != $1`

	result, err := r.db.ExecWithRetry(ctx, r.retries, query, domain.StatusDeleted, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		return db.ErrImageNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanImage(s scanner) (*domain.CourseImage, error) {
	var (
		img     domain.CourseImage
		caption []byte
	)

	err := s.Scan(
		&img.ID,
		&img.CourseID,
		&img.InstructorID,
		&img.UploadedBy,
		&img.FileName,
		&img.ContentType,
		&img.Size,
		&img.StoragePath,
		&img.ThumbnailPath,
		&img.URL,
		&img.ThumbnailURL,
		&caption,
		&img.Backend,
		&img.Status,
		&img.CreatedAt,
		&img.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(caption) > 0 {
		if err := json.Unmarshal(caption, &img.Caption); err != nil {
			return nil, fmt.Errorf("failed to decode caption: %w", err)
		}
	}

	return &img, nil
}

// encodeCaption returns nil for an empty caption so the column stays NULL.
func encodeCaption(caption domain.LocalizedText) ([]byte, error) {
	if caption.IsZero() {
		return nil, nil
	}
	return json.Marshal(caption)
}
