package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"

	"course-media/internal/config"
	"course-media/internal/repository/media"
	"course-media/internal/repository/media/cloud/firebase"
	"course-media/internal/repository/media/cloud/minio"
	"course-media/internal/repository/media/cloud/supabase"

	"github.com/wb-go/wbf/zlog"
)

const (
	ProviderFirebase = "firebase"
	ProviderSupabase = "supabase"
	ProviderMinIO    = "minio"
)

var ErrUnknownProvider = errors.New("unknown storage provider")

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the configured backend. The returned closer releases the
// backend client and must be called on shutdown.
func New(ctx context.Context, cfg config.Storage, logger *zlog.Zerolog) (media.Provider, io.Closer, error) {
	switch cfg.Provider {
	case ProviderFirebase:
		store, err := firebase.NewGCSStore(ctx, cfg.Firebase.CredentialsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create firebase storage: %w", err)
		}
		return firebase.New(cfg.Firebase.ProjectID, cfg.Firebase.Bucket, store, logger), store, nil

	case ProviderSupabase:
		api := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
		return supabase.New(cfg.Supabase.URL, cfg.Supabase.ServiceKey, cfg.Supabase.Bucket, api, logger), nopCloser{}, nil

	case ProviderMinIO:
		mcfg := minio.Config{
			Endpoint:   cfg.MinIO.Endpoint,
			AccessKey:  cfg.MinIO.AccessKey,
			SecretKey:  cfg.MinIO.SecretKey,
			Bucket:     cfg.MinIO.Bucket,
			UseSSL:     cfg.MinIO.UseSSL,
			PublicBase: cfg.MinIO.PublicBase,
		}
		if mcfg.Bucket == "" {
			mcfg.Bucket = minio.DefaultBucket
		}
		client, err := minio.NewClient(mcfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create minio storage: %w", err)
		}
		repo := minio.NewMinIORepository(client, mcfg, logger)
		if repo.IsConfigured() {
			if err := minio.EnsureBucket(ctx, client, mcfg.Bucket); err != nil {
				return nil, nil, fmt.Errorf("failed to prepare minio bucket: %w", err)
			}
		}
		return repo, nopCloser{}, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
}
