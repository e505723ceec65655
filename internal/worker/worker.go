package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"course-media/internal/broker"
	kafka_impl "course-media/internal/broker/kafka"
	"course-media/internal/domain"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// pause between requeue rounds while the broker is unreachable
const requeuePause = time.Second

type objectRemover interface {
	DeleteFile(ctx context.Context, storagePath string) error
	Name() string
}

type eventPublisher interface {
	Publish(ctx context.Context, event *domain.ImageEvent) error
}

type Options struct {
	Concurrency int
	// MaxRequeues bounds how often a failing cleanup goes back to the topic.
	MaxRequeues int
	Retries     retry.Strategy
}

// Worker consumes image events and removes primary objects orphaned by
// uploads whose thumbnail write failed.
//
// Offsets are committed cumulatively, so a message is only ever committed
// once it is handled: a cleanup that still fails after the retry strategy is
// published again with a higher attempt count before its offset moves.
type Worker struct {
	consumer    broker.Consumer
	storage     objectRemover
	requeue     eventPublisher
	retries     retry.Strategy
	concurrency int
	maxRequeues int
	logger      *zlog.Zerolog
	wg          sync.WaitGroup
}

func NewWorker(consumer broker.Consumer, storage objectRemover, requeue eventPublisher, opts Options, logger *zlog.Zerolog) *Worker {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Retries.Attempts < 1 {
		opts.Retries.Attempts = 1
	}
	return &Worker{
		consumer:    consumer,
		storage:     storage,
		requeue:     requeue,
		retries:     opts.Retries,
		concurrency: opts.Concurrency,
		maxRequeues: opts.MaxRequeues,
		logger:      logger,
	}
}

// Run blocks until ctx is cancelled and all in-flight messages are handled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Int("concurrency", w.concurrency).Str("backend", w.storage.Name()).Msg("Starting cleanup worker")

	messages := make(chan *broker.Message, w.concurrency*2)
	w.consumer.Start(ctx, messages, w.retries)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.processWorker(ctx, id, messages)
		}(i)
	}

	<-ctx.Done()
	w.logger.Info().Msg("Shutting down cleanup worker gracefully...")
	w.wg.Wait()

	w.logger.Info().Msg("Cleanup worker stopped")
	return nil
}

func (w *Worker) processWorker(ctx context.Context, id int, messages <-chan *broker.Message) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug().Int("worker_id", id).Msg("Worker stopping")
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			startTime := time.Now()
			if err := w.safeProcessMessage(ctx, id, msg); err != nil {
				w.logger.Error().
					Err(err).
					Int("worker_id", id).
					Int64("offset", msg.Offset).
					Msg("Failed to process message")
				continue
			}

			if err := w.consumer.Commit(ctx, msg); err != nil {
				w.logger.Error().
					Err(err).
					Int("worker_id", id).
					Int64("offset", msg.Offset).
					Msg("Failed to commit message after successful processing")
				continue
			}

			w.logger.Debug().
				Int("worker_id", id).
				Int64("offset", msg.Offset).
				Dur("duration", time.Since(startTime)).
				Msg("Message processed and committed successfully")
		}
	}
}

func (w *Worker) safeProcessMessage(ctx context.Context, workerID int, msg *broker.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Int("worker_id", workerID).
				Interface("panic", r).
				Int64("offset", msg.Offset).
				Msg("Panic recovered while processing message")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.processMessage(ctx, msg)
}

// processMessage returns nil for messages that can never succeed, so they
// are committed instead of blocking the partition.
func (w *Worker) processMessage(ctx context.Context, msg *broker.Message) error {
	event, err := kafka_impl.DecodeEvent(msg)
	if err != nil {
		w.logger.Warn().Err(err).Int64("offset", msg.Offset).Msg("Skipping malformed event")
		return nil
	}

	if event.Type != domain.EventImageOrphaned {
		w.logger.Debug().Str("event", string(event.Type)).Str("path", event.StoragePath).Msg("Ignoring event")
		return nil
	}

	if event.Backend != w.storage.Name() {
		w.logger.Warn().
			Str("event_backend", event.Backend).
			Str("backend", w.storage.Name()).
			Str("path", event.StoragePath).
			Msg("Skipping orphan from another backend")
		return nil
	}

	return w.removeOrphan(ctx, event)
}

func (w *Worker) removeOrphan(ctx context.Context, event *domain.ImageEvent) error {
	err := retry.DoContext(ctx, w.retries, func() error {
		return w.storage.DeleteFile(ctx, event.StoragePath)
	})
	if err == nil {
		w.logger.Info().
			Str("course_id", event.CourseID).
			Str("path", event.StoragePath).
			Int("attempt", event.Attempt).
			Msg("Orphaned image removed")
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("failed to remove orphaned image: %w", err)
	}

	if event.Attempt >= w.maxRequeues {
		w.logger.Error().
			Err(err).
			Str("course_id", event.CourseID).
			Str("path", event.StoragePath).
			Int("attempt", event.Attempt).
			Msg("Giving up on orphaned image, manual cleanup required")
		return nil
	}

	next := *event
	next.Attempt++
	next.Reason = err.Error()

	w.logger.Warn().
		Err(err).
		Str("path", event.StoragePath).
		Int("attempt", next.Attempt).
		Msg("Requeueing orphaned image")

	return w.publishUntilDone(ctx, &next)
}

// publishUntilDone blocks the worker until the requeue is accepted, so the
// original offset is never committed past an unhandled cleanup.
func (w *Worker) publishUntilDone(ctx context.Context, event *domain.ImageEvent) error {
	for {
		err := retry.DoContext(ctx, w.retries, func() error {
			return w.requeue.Publish(ctx, event)
		})
		if err == nil {
			return nil
		}

		w.logger.Error().Err(err).Str("path", event.StoragePath).Msg("Failed to requeue orphaned image")

		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to requeue orphaned image: %w", err)
		case <-time.After(requeuePause):
		}
	}
}
