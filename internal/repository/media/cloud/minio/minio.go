package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"course-media/internal/repository/media"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/zlog"
)

const (
	backendName   = "S3"
	DefaultBucket = "course-media"
)

// ObjectAPI is satisfied by *minio.Client.
type ObjectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type Config struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	PublicBase string
}

var _ media.Provider = (*FileRepository)(nil)

type FileRepository struct {
	client     ObjectAPI
	cfg        Config
	publicBase string
	logger     *zlog.Zerolog
}

func NewMinIORepository(client ObjectAPI, cfg Config, logger *zlog.Zerolog) *FileRepository {
	if cfg.Bucket == "" {
		cfg.Bucket = DefaultBucket
	}

	publicBase := strings.TrimRight(cfg.PublicBase, "/")
	if publicBase == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &FileRepository{
		client:     client,
		cfg:        cfg,
		publicBase: publicBase,
		logger:     logger,
	}
}

// NewClient creates the SDK client; it performs no network call.
func NewClient(cfg Config) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return client, nil
}

// EnsureBucket creates the bucket when missing and opens it for anonymous
// reads, which is what makes the uploaded objects public.
func EnsureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %q: %w", bucket, err)
		}
	}

	if err := client.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}
	return nil
}

func (r *FileRepository) Name() string {
	return backendName
}

func (r *FileRepository) IsConfigured() bool {
	return r.cfg.Endpoint != "" && r.cfg.AccessKey != "" && r.cfg.SecretKey != "" && r.cfg.Bucket != ""
}

func (r *FileRepository) PublicURL(storagePath string) string {
	return r.publicBase + "/" + strings.TrimPrefix(storagePath, "/")
}

func (r *FileRepository) UploadFile(ctx context.Context, file media.FileInfo, storagePath, thumbnailPath string, primary, thumbnail []byte, meta media.Metadata) (*media.UploadResult, error) {
	if err := media.ValidateUpload(backendName, storagePath, thumbnailPath, primary, thumbnail); err != nil {
		return nil, err
	}

	opts := minio.PutObjectOptions{
		ContentType:  file.ContentType,
		UserMetadata: meta.Map(),
	}

	if err := r.put(ctx, storagePath, primary, opts); err != nil {
		r.logger.Error().Err(err).Str("bucket", r.cfg.Bucket).Str("path", storagePath).Msg("Failed to upload main image")
		return nil, media.UploadError(backendName, media.StagePrimary, err)
	}

	if err := r.put(ctx, thumbnailPath, thumbnail, opts); err != nil {
		r.logger.Error().
			Err(err).
			Str("bucket", r.cfg.Bucket).
			Str("path", thumbnailPath).
			Str("primary_path", storagePath).
			Msg("Failed to upload thumbnail, main image left in place")
		return nil, media.UploadError(backendName, media.StageThumbnail, err)
	}

	return &media.UploadResult{
		URL:          r.PublicURL(storagePath),
		FileName:     file.Name,
		StoragePath:  storagePath,
		ThumbnailURL: r.PublicURL(thumbnailPath),
	}, nil
}

func (r *FileRepository) put(ctx context.Context, path string, data []byte, opts minio.PutObjectOptions) error {
	_, err := r.client.PutObject(ctx, r.cfg.Bucket, path, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return errors.New(errorMessage(err))
	}
	return nil
}

// errorMessage keeps the S3 error body text and drops the SDK error type.
func errorMessage(err error) string {
	if msg := minio.ToErrorResponse(err).Message; msg != "" {
		return msg
	}
	return err.Error()
}

func (r *FileRepository) DeleteFile(ctx context.Context, storagePath string) error {
	if err := media.ValidateDelete(backendName, storagePath); err != nil {
		return err
	}

	for _, path := range []string{storagePath, media.ThumbnailPathFor(storagePath)} {
		err := r.client.RemoveObject(ctx, r.cfg.Bucket, path, minio.RemoveObjectOptions{})
		if err == nil {
			continue
		}
		if isObjectNotFound(err) {
			continue
		}
		r.logger.Error().Err(err).Str("bucket", r.cfg.Bucket).Str("path", path).Msg("Failed to delete object")
		return media.DeleteError(backendName, errors.New(errorMessage(err)))
	}

	return nil
}

// isObjectNotFound matches only the object-level code; NoSuchBucket is a
// delete failure.
func isObjectNotFound(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey" || media.IsNotFound(err)
}

func publicReadPolicy(bucket string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": map[string]interface{}{"AWS": []string{"*"}},
				"Action":    []string{"s3:GetObject"},
				"Resource":  []string{fmt.Sprintf("arn:aws:s3:::%s/*", bucket)},
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
