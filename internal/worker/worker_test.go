package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"course-media/internal/broker"
	"course-media/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type stubConsumer struct {
	pending []*broker.Message

	mu        sync.Mutex
	committed []int64
}

func (c *stubConsumer) Start(ctx context.Context, out chan<- *broker.Message, _ retry.Strategy) {
	go func() {
		for _, msg := range c.pending {
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (c *stubConsumer) Commit(_ context.Context, msg *broker.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.committed = append(c.committed, msg.Offset)
	return nil
}

func (c *stubConsumer) Close() error { return nil }

func (c *stubConsumer) commits() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.committed...)
}

type stubStorage struct {
	mu      sync.Mutex
	deleted []string
	// failures is the number of failing calls per path; negative fails forever.
	failures map[string]int
	panicOn  string
}

func (s *stubStorage) DeleteFile(_ context.Context, path string) error {
	if path == s.panicOn {
		panic("boom")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, path)
	if n := s.failures[path]; n != 0 {
		s.failures[path] = n - 1
		return errors.New("Failed to delete from S3 Storage: access denied")
	}
	return nil
}

func (s *stubStorage) Name() string { return "S3" }

func (s *stubStorage) paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

type stubPublisher struct {
	mu     sync.Mutex
	events []domain.ImageEvent
}

func (p *stubPublisher) Publish(_ context.Context, event *domain.ImageEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return nil
}

func (p *stubPublisher) published() []domain.ImageEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.ImageEvent(nil), p.events...)
}

func event(t *testing.T, offset int64, e domain.ImageEvent) *broker.Message {
	t.Helper()
	value, err := json.Marshal(e)
	require.NoError(t, err)
	return &broker.Message{Value: value, Offset: offset, Topic: "course-media.events"}
}

func orphan(path string, attempt int) domain.ImageEvent {
	return domain.ImageEvent{Type: domain.EventImageOrphaned, Backend: "S3", CourseID: "c1", StoragePath: path, Attempt: attempt}
}

// run starts w and returns a function that stops it and waits for Run.
func run(t *testing.T, w *Worker) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	return func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not stop")
		}
	}
}

func newTestWorker(consumer *stubConsumer, storage *stubStorage, publisher *stubPublisher, concurrency int) *Worker {
	zlog.Init()
	return NewWorker(consumer, storage, publisher, Options{
		Concurrency: concurrency,
		MaxRequeues: 3,
		Retries:     retry.Strategy{Attempts: 2, Backoff: 1},
	}, &zlog.Logger)
}

func TestWorkerRemovesOrphans(t *testing.T) {
	consumer := &stubConsumer{pending: []*broker.Message{
		event(t, 1, orphan("courses/c1/images/a.jpg", 0)),
		event(t, 2, domain.ImageEvent{Type: domain.EventImageUploaded, Backend: "S3", StoragePath: "courses/c1/images/b.jpg"}),
		event(t, 3, domain.ImageEvent{Type: domain.EventImageOrphaned, Backend: "Firebase", StoragePath: "courses/c1/images/c.jpg"}),
		{Value: []byte("garbage"), Offset: 4},
		event(t, 6, orphan("courses/c1/images/panic.jpg", 0)),
	}}
	storage := &stubStorage{failures: map[string]int{}, panicOn: "courses/c1/images/panic.jpg"}
	publisher := &stubPublisher{}

	stop := run(t, newTestWorker(consumer, storage, publisher, 2))

	require.Eventually(t, func() bool {
		return len(consumer.commits()) == 4
	}, 2*time.Second, 10*time.Millisecond)
	stop()

	assert.ElementsMatch(t, []int64{1, 2, 3, 4}, consumer.commits())
	assert.Equal(t, []string{"courses/c1/images/a.jpg"}, storage.paths())
	assert.Empty(t, publisher.published())
}

func TestWorkerRetriesTransientDeleteFailure(t *testing.T) {
	consumer := &stubConsumer{pending: []*broker.Message{
		event(t, 1, orphan("courses/c1/images/flaky.jpg", 0)),
	}}
	storage := &stubStorage{failures: map[string]int{"courses/c1/images/flaky.jpg": 1}}
	publisher := &stubPublisher{}

	stop := run(t, newTestWorker(consumer, storage, publisher, 1))

	require.Eventually(t, func() bool {
		return len(consumer.commits()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	stop()

	assert.Equal(t, []string{"courses/c1/images/flaky.jpg", "courses/c1/images/flaky.jpg"}, storage.paths())
	assert.Empty(t, publisher.published())
}

func TestWorkerRequeuesFailedCleanupBeforeMovingOn(t *testing.T) {
	consumer := &stubConsumer{pending: []*broker.Message{
		event(t, 5, orphan("courses/c1/images/fail.jpg", 1)),
		event(t, 7, domain.ImageEvent{Type: domain.EventImageUploaded, Backend: "S3", StoragePath: "courses/c1/images/ok.jpg"}),
	}}
	storage := &stubStorage{failures: map[string]int{"courses/c1/images/fail.jpg": -1}}
	publisher := &stubPublisher{}

	stop := run(t, newTestWorker(consumer, storage, publisher, 1))

	require.Eventually(t, func() bool {
		return len(consumer.commits()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	stop()

	assert.Equal(t, []int64{5, 7}, consumer.commits())
	assert.Len(t, storage.paths(), 2)

	requeued := publisher.published()
	require.Len(t, requeued, 1)
	assert.Equal(t, domain.EventImageOrphaned, requeued[0].Type)
	assert.Equal(t, "courses/c1/images/fail.jpg", requeued[0].StoragePath)
	assert.Equal(t, 2, requeued[0].Attempt)
	assert.Contains(t, requeued[0].Reason, "access denied")
}

func TestWorkerStopsRequeueingAfterLimit(t *testing.T) {
	consumer := &stubConsumer{pending: []*broker.Message{
		event(t, 9, orphan("courses/c1/images/fail.jpg", 3)),
	}}
	storage := &stubStorage{failures: map[string]int{"courses/c1/images/fail.jpg": -1}}
	publisher := &stubPublisher{}

	stop := run(t, newTestWorker(consumer, storage, publisher, 1))

	require.Eventually(t, func() bool {
		return len(consumer.commits()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	stop()

	assert.Len(t, storage.paths(), 2)
	assert.Empty(t, publisher.published())
}
