package firebase

import (
	"context"
	"strings"

	"course-media/internal/repository/media"

	"github.com/wb-go/wbf/zlog"
)

const (
	backendName       = "Firebase"
	defaultBucketHost = ".appspot.com"
	publicHost        = "https://storage.googleapis.com"
)

// ObjectStore is the part of the Cloud Storage client the provider needs.
type ObjectStore interface {
	Write(ctx context.Context, bucket, path string, data []byte, contentType string, metadata map[string]string) error
	MakePublic(ctx context.Context, bucket, path string) error
	Delete(ctx context.Context, bucket, path string) error
}

var _ media.Provider = (*Provider)(nil)

type Provider struct {
	projectID string
	bucket    string
	store     ObjectStore
	logger    *zlog.Zerolog
}

// New builds the provider. An empty bucket resolves to the project's default
// Firebase bucket.
func New(projectID, bucket string, store ObjectStore, logger *zlog.Zerolog) *Provider {
	if bucket == "" {
		bucket = projectID + defaultBucketHost
	}
	return &Provider{
		projectID: projectID,
		bucket:    bucket,
		store:     store,
		logger:    logger,
	}
}

func (p *Provider) Name() string {
	return backendName
}

func (p *Provider) IsConfigured() bool {
	return p.projectID != "" && p.bucket != ""
}

func (p *Provider) PublicURL(storagePath string) string {
	return publicHost + "/" + p.bucket + "/" + strings.TrimPrefix(storagePath, "/")
}

func (p *Provider) UploadFile(ctx context.Context, file media.FileInfo, storagePath, thumbnailPath string, primary, thumbnail []byte, meta media.Metadata) (*media.UploadResult, error) {
	if err := media.ValidateUpload(backendName, storagePath, thumbnailPath, primary, thumbnail); err != nil {
		return nil, err
	}

	metadata := meta.Map()

	if err := p.writePublic(ctx, storagePath, primary, file.ContentType, metadata); err != nil {
		p.logger.Error().Err(err).Str("bucket", p.bucket).Str("path", storagePath).Msg("Failed to upload main image")
		return nil, media.UploadError(backendName, media.StagePrimary, err)
	}

	if err := p.writePublic(ctx, thumbnailPath, thumbnail, file.ContentType, metadata); err != nil {
		p.logger.Error().
			Err(err).
			Str("bucket", p.bucket).
			Str("path", thumbnailPath).
			Str("primary_path", storagePath).
			Msg("Failed to upload thumbnail, main image left in place")
		return nil, media.UploadError(backendName, media.StageThumbnail, err)
	}

	p.logger.Debug().
		Str("bucket", p.bucket).
		Str("path", storagePath).
		Str("thumbnail_path", thumbnailPath).
		Int("size", len(primary)).
		Msg("Image uploaded")

	return &media.UploadResult{
		URL:          p.PublicURL(storagePath),
		FileName:     file.Name,
		StoragePath:  storagePath,
		ThumbnailURL: p.PublicURL(thumbnailPath),
	}, nil
}

func (p *Provider) writePublic(ctx context.Context, path string, data []byte, contentType string, metadata map[string]string) error {
	if err := p.store.Write(ctx, p.bucket, path, data, contentType, metadata); err != nil {
		return err
	}
	return p.store.MakePublic(ctx, p.bucket, path)
}

// DeleteFile tolerates a missing object per path, so a half-uploaded pair
// can still be cleaned up.
func (p *Provider) DeleteFile(ctx context.Context, storagePath string) error {
	if err := media.ValidateDelete(backendName, storagePath); err != nil {
		return err
	}

	for _, path := range []string{storagePath, media.ThumbnailPathFor(storagePath)} {
		err := p.store.Delete(ctx, p.bucket, path)
		if err == nil {
			continue
		}
		if media.IsNotFound(err) {
			p.logger.Debug().Str("bucket", p.bucket).Str("path", path).Msg("Object already absent")
			continue
		}
		p.logger.Error().Err(err).Str("bucket", p.bucket).Str("path", path).Msg("Failed to delete object")
		return media.DeleteError(backendName, err)
	}

	return nil
}
