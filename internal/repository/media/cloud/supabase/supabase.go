package supabase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"course-media/internal/repository/media"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/wb-go/wbf/zlog"
)

const (
	backendName   = "Supabase"
	DefaultBucket = "course-media"
	storageAPI    = "/storage/v1"
	publicObjects = "/object/public/"

	objectNotFound = "Object not found"
)

// ObjectAPI is the subset of the storage-go client used by the provider.
type ObjectAPI interface {
	UploadFile(bucketID, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
	RemoveFile(bucketID string, paths []string) ([]storage_go.FileUploadResponse, error)
}

var _ media.Provider = (*Provider)(nil)

type Provider struct {
	endpoint   string
	serviceKey string
	bucket     string
	api        ObjectAPI
	logger     *zlog.Zerolog
}

func New(endpoint, serviceKey, bucket string, api ObjectAPI, logger *zlog.Zerolog) *Provider {
	return &Provider{
		endpoint:   strings.TrimRight(endpoint, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		api:        api,
		logger:     logger,
	}
}

// NewClient returns the storage-go backed ObjectAPI for a project endpoint.
func NewClient(endpoint, serviceKey string) ObjectAPI {
	return &sdkClient{
		baseURL:    strings.TrimRight(endpoint, "/") + storageAPI,
		serviceKey: serviceKey,
	}
}

func (p *Provider) Name() string {
	return backendName
}

func (p *Provider) IsConfigured() bool {
	return p.endpoint != "" && p.serviceKey != "" && p.bucket != ""
}

func (p *Provider) PublicURL(storagePath string) string {
	return p.endpoint + storageAPI + publicObjects + p.bucketName() + "/" + strings.TrimPrefix(storagePath, "/")
}

func (p *Provider) bucketName() string {
	if p.bucket == "" {
		return DefaultBucket
	}
	return p.bucket
}

func (p *Provider) UploadFile(ctx context.Context, file media.FileInfo, storagePath, thumbnailPath string, primary, thumbnail []byte, meta media.Metadata) (*media.UploadResult, error) {
	if err := media.ValidateUpload(backendName, storagePath, thumbnailPath, primary, thumbnail); err != nil {
		return nil, err
	}

	// storage-go has no per-object metadata, the trace fields go to the log.
	p.logger.Info().
		Str("bucket", p.bucketName()).
		Str("path", storagePath).
		Str("course_id", meta.CourseID).
		Str("instructor_id", meta.InstructorID).
		Str("uploaded_by", meta.UploadedBy).
		Str("uploaded_at", meta.UploadedAt).
		Msg("Uploading image")

	if err := p.upload(ctx, storagePath, primary, file.ContentType, media.StagePrimary); err != nil {
		p.logger.Error().Err(err).Str("path", storagePath).Msg("Failed to upload main image")
		return nil, err
	}

	if err := p.upload(ctx, thumbnailPath, thumbnail, file.ContentType, media.StageThumbnail); err != nil {
		p.logger.Error().
			Err(err).
			Str("path", thumbnailPath).
			Str("primary_path", storagePath).
			Msg("Failed to upload thumbnail, main image left in place")
		return nil, err
	}

	return &media.UploadResult{
		URL:          p.PublicURL(storagePath),
		FileName:     file.Name,
		StoragePath:  storagePath,
		ThumbnailURL: p.PublicURL(thumbnailPath),
	}, nil
}

func (p *Provider) upload(ctx context.Context, path string, data []byte, contentType string, stage media.Stage) error {
	if err := ctx.Err(); err != nil {
		return media.UploadError(backendName, stage, err)
	}

	upsert := true
	resp, err := p.api.UploadFile(p.bucketName(), path, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return media.UploadError(backendName, stage, plain(err))
	}
	if resp.Error != "" {
		return media.UploadMessageError(backendName, stage, responseMessage(resp))
	}
	return nil
}

// DeleteFile removes both objects in one request; a not-found answer for the
// request as a whole counts as success.
func (p *Provider) DeleteFile(ctx context.Context, storagePath string) error {
	if err := media.ValidateDelete(backendName, storagePath); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return media.DeleteError(backendName, err)
	}

	paths := []string{storagePath, media.ThumbnailPathFor(storagePath)}
	resp, err := p.api.RemoveFile(p.bucketName(), paths)
	if err != nil {
		if isNotFound(err) {
			p.logger.Debug().Strs("paths", paths).Msg("Objects already absent")
			return nil
		}
		p.logger.Error().Err(err).Strs("paths", paths).Msg("Failed to delete objects")
		return media.DeleteError(backendName, plain(err))
	}

	for _, r := range resp {
		if r.Error == "" {
			continue
		}
		if r.Code == "404" && !mentionsBucket(r.Error, r.Message) {
			continue
		}
		p.logger.Error().Str("error", r.Error).Str("key", r.Key).Msg("Failed to delete object")
		return media.DeleteError(backendName, errors.New(responseMessage(r)))
	}

	return nil
}

// isNotFound accepts object-level not-found answers only; "Bucket not found"
// is a configuration error.
func isNotFound(err error) bool {
	if media.IsNotFound(err) {
		return true
	}
	var serr *storage_go.StorageError
	if !errors.As(err, &serr) || mentionsBucket(serr.Message) {
		return false
	}
	return serr.Status == http.StatusNotFound || strings.EqualFold(serr.Message, objectNotFound)
}

func mentionsBucket(messages ...string) bool {
	for _, m := range messages {
		if strings.Contains(strings.ToLower(m), "bucket") {
			return true
		}
	}
	return false
}

// plain drops the SDK error type and keeps its text.
func plain(err error) error {
	var serr *storage_go.StorageError
	if errors.As(err, &serr) {
		if serr.Message == "" {
			return errors.New(http.StatusText(serr.Status))
		}
		return errors.New(serr.Message)
	}
	return errors.New(err.Error())
}

func responseMessage(r storage_go.FileUploadResponse) string {
	if r.Message != "" {
		return r.Message
	}
	return r.Error
}

// sdkClient builds a storage-go client per call: the SDK writes per-upload
// headers into its transport, which must not leak into concurrent requests.
// Connections are pooled by http.DefaultTransport underneath.
type sdkClient struct {
	baseURL    string
	serviceKey string
}

func (c *sdkClient) sdk() *storage_go.Client {
	return storage_go.NewClient(c.baseURL, c.serviceKey, map[string]string{"apikey": c.serviceKey})
}

func (c *sdkClient) UploadFile(bucketID, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error) {
	return c.sdk().UploadFile(bucketID, relativePath, data, fileOptions...)
}

func (c *sdkClient) RemoveFile(bucketID string, paths []string) ([]storage_go.FileUploadResponse, error) {
	return c.sdk().RemoveFile(bucketID, paths)
}
