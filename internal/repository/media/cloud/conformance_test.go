package cloud_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"testing"

	"course-media/internal/repository/media"
	"course-media/internal/repository/media/cloud/firebase"
	"course-media/internal/repository/media/cloud/minio"
	"course-media/internal/repository/media/cloud/supabase"

	gcs "cloud.google.com/go/storage"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	storage_go "github.com/supabase-community/storage-go"
	"github.com/wb-go/wbf/zlog"
	"google.golang.org/api/googleapi"
)

type failureKind int

const (
	transportFailure failureKind = iota
	structuredFailure
	sdkFailure
	missingBucket
)

type failure struct {
	kind    failureKind
	message string
}

// objectStore is the in-memory state shared by the per-backend fakes.
type objectStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	writeFail map[string]failure
	deleteErr *failure
	// noBucket makes every delete fail with the backend's missing-bucket error.
	noBucket bool
	writes   []string
}

func newObjectStore() *objectStore {
	return &objectStore{
		objects:   make(map[string][]byte),
		writeFail: make(map[string]failure),
	}
}

func (s *objectStore) write(path string, data []byte) (*failure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes = append(s.writes, path)
	if f, ok := s.writeFail[path]; ok {
		return &f, false
	}
	s.objects[path] = append([]byte(nil), data...)
	return nil, true
}

// remove reports whether the object existed.
func (s *objectStore) remove(path string) (*failure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleteErr != nil {
		return s.deleteErr, false
	}
	if s.noBucket {
		return &failure{kind: missingBucket}, false
	}
	_, ok := s.objects[path]
	delete(s.objects, path)
	return nil, ok
}

func (s *objectStore) has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path]
	return ok
}

type fakeGCS struct{ store *objectStore }

func (f *fakeGCS) Write(_ context.Context, _, path string, data []byte, _ string, _ map[string]string) error {
	if fail, ok := f.store.write(path, data); !ok {
		if fail.kind == sdkFailure {
			return &googleapi.Error{Code: http.StatusServiceUnavailable, Message: fail.message}
		}
		return errors.New(fail.message)
	}
	return nil
}

func (f *fakeGCS) MakePublic(context.Context, string, string) error { return nil }

func (f *fakeGCS) Delete(_ context.Context, _, path string) error {
	fail, existed := f.store.remove(path)
	if fail != nil && fail.kind == missingBucket {
		return fmt.Errorf("delete object %q: %w", path, gcs.ErrBucketNotExist)
	}
	if fail != nil {
		return &googleapi.Error{Code: http.StatusForbidden, Message: fail.message}
	}
	if !existed {
		return media.ErrObjectNotFound
	}
	return nil
}

type fakeSupabase struct{ store *objectStore }

func (f *fakeSupabase) UploadFile(_, path string, data io.Reader, _ ...storage_go.FileOptions) (storage_go.FileUploadResponse, error) {
	b, _ := io.ReadAll(data)
	if fail, ok := f.store.write(path, b); !ok {
		switch fail.kind {
		case structuredFailure:
			return storage_go.FileUploadResponse{Error: "Bad Request", Message: fail.message}, nil
		case sdkFailure:
			return storage_go.FileUploadResponse{}, &storage_go.StorageError{Status: http.StatusServiceUnavailable, Message: fail.message}
		default:
			return storage_go.FileUploadResponse{}, errors.New(fail.message)
		}
	}
	return storage_go.FileUploadResponse{Key: path}, nil
}

func (f *fakeSupabase) RemoveFile(_ string, paths []string) ([]storage_go.FileUploadResponse, error) {
	found := 0
	for _, p := range paths {
		fail, existed := f.store.remove(p)
		if fail != nil && fail.kind == missingBucket {
			return nil, &storage_go.StorageError{Status: http.StatusNotFound, Message: "Bucket not found"}
		}
		if fail != nil {
			return nil, &storage_go.StorageError{Status: http.StatusForbidden, Message: fail.message}
		}
		if existed {
			found++
		}
	}
	if found == 0 {
		return nil, &storage_go.StorageError{Status: http.StatusNotFound, Message: "Object not found"}
	}
	return []storage_go.FileUploadResponse{}, nil
}

type fakeS3 struct{ store *objectStore }

func (f *fakeS3) PutObject(_ context.Context, _, path string, r io.Reader, _ int64, _ miniogo.PutObjectOptions) (miniogo.UploadInfo, error) {
	b, _ := io.ReadAll(r)
	if fail, ok := f.store.write(path, b); !ok {
		if fail.kind == transportFailure {
			return miniogo.UploadInfo{}, errors.New(fail.message)
		}
		return miniogo.UploadInfo{}, miniogo.ErrorResponse{Code: "InternalError", Message: fail.message, StatusCode: http.StatusInternalServerError}
	}
	return miniogo.UploadInfo{Key: path, Size: int64(len(b))}, nil
}

func (f *fakeS3) RemoveObject(_ context.Context, _, path string, _ miniogo.RemoveObjectOptions) error {
	fail, existed := f.store.remove(path)
	if fail != nil && fail.kind == missingBucket {
		return miniogo.ErrorResponse{Code: "NoSuchBucket", Message: "The specified bucket does not exist", StatusCode: http.StatusNotFound}
	}
	if fail != nil {
		return miniogo.ErrorResponse{Code: "AccessDenied", Message: fail.message, StatusCode: http.StatusForbidden}
	}
	if !existed {
		return miniogo.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist.", StatusCode: http.StatusNotFound}
	}
	return nil
}

type backend struct {
	name string
	// urlBase is the public URL prefix objects are served from.
	urlBase string
	build   func(store *objectStore) media.Provider
	// unconfigured returns one provider per required field left empty.
	unconfigured func() []media.Provider
}

func backends(logger *zlog.Zerolog) []backend {
	return []backend{
		{
			name:    "Firebase",
			urlBase: "https://storage.googleapis.com/demo.appspot.com/",
			build: func(store *objectStore) media.Provider {
				return firebase.New("demo", "", &fakeGCS{store: store}, logger)
			},
			unconfigured: func() []media.Provider {
				return []media.Provider{
					firebase.New("", "", &fakeGCS{store: newObjectStore()}, logger),
				}
			},
		},
		{
			name:    "Supabase",
			urlBase: "https://project.supabase.co/storage/v1/object/public/course-media/",
			build: func(store *objectStore) media.Provider {
				return supabase.New("https://project.supabase.co", "service-key", "course-media", &fakeSupabase{store: store}, logger)
			},
			unconfigured: func() []media.Provider {
				api := &fakeSupabase{store: newObjectStore()}
				return []media.Provider{
					supabase.New("", "service-key", "course-media", api, logger),
					supabase.New("https://project.supabase.co", "", "course-media", api, logger),
					supabase.New("https://project.supabase.co", "service-key", "", api, logger),
				}
			},
		},
		{
			name:    "S3",
			urlBase: "http://localhost:9000/course-media/",
			build: func(store *objectStore) media.Provider {
				return minio.NewMinIORepository(&fakeS3{store: store}, minio.Config{
					Endpoint:  "localhost:9000",
					AccessKey: "access",
					SecretKey: "secret",
					Bucket:    "course-media",
				}, logger)
			},
			unconfigured: func() []media.Provider {
				api := &fakeS3{store: newObjectStore()}
				return []media.Provider{
					minio.NewMinIORepository(api, minio.Config{AccessKey: "a", SecretKey: "s", Bucket: "b"}, logger),
					minio.NewMinIORepository(api, minio.Config{Endpoint: "e", SecretKey: "s", Bucket: "b"}, logger),
					minio.NewMinIORepository(api, minio.Config{Endpoint: "e", AccessKey: "a", Bucket: "b"}, logger),
				}
			},
		},
	}
}

const (
	primaryPath   = "courses/c1/images/test.jpg"
	thumbnailPath = "courses/c1/thumbnails/thumb_test.jpg"
)

var (
	primaryData   = []byte("primary-bytes")
	thumbnailData = []byte("thumb")
	fileInfo      = media.FileInfo{Name: "test-image.jpg", ContentType: "image/jpeg"}
	metadata      = media.Metadata{CourseID: "c1", InstructorID: "i1", UploadedBy: "u1", UploadedAt: "2024-01-01T00:00:00Z"}
)

func testLogger() *zlog.Zerolog {
	zlog.Init()
	return &zlog.Logger
}

func TestProviderConformance(t *testing.T) {
	ctx := context.Background()

	for _, b := range backends(testLogger()) {
		t.Run(b.name, func(t *testing.T) {
			t.Run("upload returns public urls", func(t *testing.T) {
				store := newObjectStore()
				p := b.build(store)
				require.True(t, p.IsConfigured())
				assert.Equal(t, b.name, p.Name())

				res, err := p.UploadFile(ctx, fileInfo, primaryPath, thumbnailPath, primaryData, thumbnailData, metadata)
				require.NoError(t, err)

				assert.Equal(t, &media.UploadResult{
					URL:          b.urlBase + primaryPath,
					FileName:     "test-image.jpg",
					StoragePath:  primaryPath,
					ThumbnailURL: b.urlBase + thumbnailPath,
				}, res)
				assert.Equal(t, p.PublicURL(primaryPath), res.URL)
				assert.Equal(t, p.PublicURL(thumbnailPath), res.ThumbnailURL)
				assert.Equal(t, []string{primaryPath, thumbnailPath}, store.writes)
			})

			t.Run("primary failure skips thumbnail", func(t *testing.T) {
				store := newObjectStore()
				store.writeFail[primaryPath] = failure{kind: transportFailure, message: "Network error"}
				p := b.build(store)

				_, err := p.UploadFile(ctx, fileInfo, primaryPath, thumbnailPath, primaryData, thumbnailData, metadata)
				require.Error(t, err)

				assert.Contains(t, err.Error(), "Failed to upload to "+b.name+" Storage")
				assert.Contains(t, err.Error(), "Network error")
				assert.ErrorIs(t, err, media.ErrPrimaryWrite)
				assert.Equal(t, []string{primaryPath}, store.writes)
			})

			t.Run("thumbnail failure keeps primary", func(t *testing.T) {
				store := newObjectStore()
				store.writeFail[thumbnailPath] = failure{kind: structuredFailure, message: "Thumbnail upload failed"}
				p := b.build(store)

				_, err := p.UploadFile(ctx, fileInfo, primaryPath, thumbnailPath, primaryData, thumbnailData, metadata)
				require.Error(t, err)

				assert.Contains(t, err.Error(), "Failed to upload thumbnail: Thumbnail upload failed")
				assert.NotContains(t, err.Error(), "main image")
				assert.ErrorIs(t, err, media.ErrThumbnailWrite)
				assert.True(t, store.has(primaryPath))
				assert.False(t, store.has(thumbnailPath))
			})

			t.Run("sdk errors are wrapped", func(t *testing.T) {
				store := newObjectStore()
				store.writeFail[primaryPath] = failure{kind: sdkFailure, message: "backend unavailable"}
				p := b.build(store)

				_, err := p.UploadFile(ctx, fileInfo, primaryPath, thumbnailPath, primaryData, thumbnailData, metadata)
				require.Error(t, err)

				var merr *media.Error
				require.ErrorAs(t, err, &merr)
				assert.Equal(t, b.name, merr.Backend)
				assert.Contains(t, err.Error(), b.name)
				assert.Contains(t, err.Error(), "backend unavailable")
				assert.Same(t, media.ErrPrimaryWrite, errors.Unwrap(err))
			})

			t.Run("delete removes both objects", func(t *testing.T) {
				store := newObjectStore()
				p := b.build(store)

				_, err := p.UploadFile(ctx, fileInfo, primaryPath, thumbnailPath, primaryData, thumbnailData, metadata)
				require.NoError(t, err)

				require.NoError(t, p.DeleteFile(ctx, primaryPath))
				assert.False(t, store.has(primaryPath))
				assert.False(t, store.has(thumbnailPath))
			})

			t.Run("delete is idempotent", func(t *testing.T) {
				store := newObjectStore()
				p := b.build(store)

				require.NoError(t, p.DeleteFile(ctx, "test/path.jpg"))
				require.NoError(t, p.DeleteFile(ctx, "test/path.jpg"))
			})

			t.Run("delete failure is wrapped", func(t *testing.T) {
				store := newObjectStore()
				store.deleteErr = &failure{kind: sdkFailure, message: "access denied"}
				p := b.build(store)

				err := p.DeleteFile(ctx, "test/path.jpg")
				require.Error(t, err)

				assert.Contains(t, err.Error(), "Failed to delete from "+b.name+" Storage")
				assert.Contains(t, err.Error(), "access denied")
				assert.Same(t, media.ErrDelete, errors.Unwrap(err))
			})

			t.Run("missing bucket is not a missing object", func(t *testing.T) {
				store := newObjectStore()
				store.noBucket = true
				p := b.build(store)

				err := p.DeleteFile(ctx, primaryPath)
				require.Error(t, err)

				assert.Contains(t, err.Error(), "Failed to delete from "+b.name+" Storage")
				assert.Contains(t, strings.ToLower(err.Error()), "bucket")
				assert.Same(t, media.ErrDelete, errors.Unwrap(err))
			})

			t.Run("invalid input never reaches the backend", func(t *testing.T) {
				store := newObjectStore()
				p := b.build(store)

				_, err := p.UploadFile(ctx, fileInfo, primaryPath, primaryPath, primaryData, thumbnailData, metadata)
				assert.ErrorIs(t, err, media.ErrInvalidInput)

				_, err = p.UploadFile(ctx, fileInfo, primaryPath, thumbnailPath, nil, thumbnailData, metadata)
				assert.ErrorIs(t, err, media.ErrInvalidInput)

				assert.ErrorIs(t, p.DeleteFile(ctx, ""), media.ErrInvalidInput)
				assert.Empty(t, store.writes)
			})

			t.Run("empty required field is unconfigured", func(t *testing.T) {
				for _, p := range b.unconfigured() {
					assert.False(t, p.IsConfigured())
					assert.NotEmpty(t, p.PublicURL("a.jpg"))
				}
			})
		})
	}
}

func TestUploadResultShapeIsShared(t *testing.T) {
	ctx := context.Background()

	var shape []string
	for _, b := range backends(testLogger()) {
		res, err := b.build(newObjectStore()).UploadFile(ctx, fileInfo, primaryPath, thumbnailPath, primaryData, thumbnailData, metadata)
		require.NoError(t, err, b.name)

		v := reflect.ValueOf(*res)
		var fields []string
		for i := 0; i < v.NumField(); i++ {
			require.Equal(t, reflect.String, v.Field(i).Kind())
			require.NotEmpty(t, v.Field(i).String(), "%s: %s", b.name, v.Type().Field(i).Name)
			fields = append(fields, v.Type().Field(i).Name)
		}

		if shape == nil {
			shape = fields
			continue
		}
		assert.Equal(t, shape, fields, b.name)
	}
}

func TestProvidersAreSafeForConcurrentUse(t *testing.T) {
	ctx := context.Background()

	for _, b := range backends(testLogger()) {
		store := newObjectStore()
		p := b.build(store)

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				pair := media.ImagePaths("courses/c1", string(rune('a'+i))+".jpg")
				_, err := p.UploadFile(ctx, fileInfo, pair.StoragePath, pair.ThumbnailPath, bytes.Repeat([]byte{1}, 8), thumbnailData, metadata)
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		assert.Len(t, store.writes, 32, b.name)
	}
}
