package firebase

import (
	"context"
	"errors"
	"fmt"

	"course-media/internal/repository/media"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore adapts the Cloud Storage client to ObjectStore.
type GCSStore struct {
	client *storage.Client
}

// NewGCSStore uses application default credentials unless a service
// account file is given.
func NewGCSStore(ctx context.Context, credentialsFile string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStore{client: client}, nil
}

func (s *GCSStore) Write(ctx context.Context, bucket, path string, data []byte, contentType string, metadata map[string]string) error {
	w := s.client.Bucket(bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = metadata

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %q: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object %q: %w", path, err)
	}
	return nil
}

func (s *GCSStore) MakePublic(ctx context.Context, bucket, path string) error {
	if err := s.client.Bucket(bucket).Object(path).ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return fmt.Errorf("make object %q public: %w", path, err)
	}
	return nil
}

func (s *GCSStore) Delete(ctx context.Context, bucket, path string) error {
	err := s.client.Bucket(bucket).Object(path).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return media.ErrObjectNotFound
	}
	if err != nil {
		return fmt.Errorf("delete object %q: %w", path, err)
	}
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
