package app

import (
	"context"
	"fmt"
	"io"

	kafka_impl "course-media/internal/broker/kafka"
	"course-media/internal/config"
	"course-media/internal/repository/media/cloud"
	"course-media/internal/worker"

	"github.com/wb-go/wbf/zlog"
)

// WorkerApp runs the orphan cleanup worker against the configured backend.
type WorkerApp struct {
	worker   *worker.Worker
	consumer *kafka_impl.ConsumerClient
	producer *kafka_impl.ProducerClient
	storage  io.Closer
	logger   *zlog.Zerolog
}

func NewWorkerApp(cfg *config.Config, logger *zlog.Zerolog) (*WorkerApp, error) {
	storage, storageCloser, err := cloud.New(context.Background(), cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage provider: %w", err)
	}
	if !storage.IsConfigured() {
		_ = storageCloser.Close()
		return nil, fmt.Errorf("storage backend %s is not configured", storage.Name())
	}

	retries := cfg.DefaultRetryStrategy()

	consumer := kafka_impl.NewConsumerClient(cfg)
	producer := kafka_impl.NewProducerClient(cfg)

	w := worker.NewWorker(consumer, storage, kafka_impl.NewEventPublisher(producer, retries), worker.Options{
		Concurrency: cfg.Worker.Concurrency,
		MaxRequeues: cfg.Worker.MaxRequeues,
		Retries:     retries,
	}, logger)

	return &WorkerApp{
		worker:   w,
		consumer: consumer,
		producer: producer,
		storage:  storageCloser,
		logger:   logger,
	}, nil
}

func (a *WorkerApp) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleSignals(cancel, a.logger)

	err := a.worker.Run(ctx)

	if cerr := a.consumer.Close(); cerr != nil {
		a.logger.Error().Err(cerr).Msg("Failed to close kafka consumer")
	}
	if cerr := a.producer.Close(); cerr != nil {
		a.logger.Error().Err(cerr).Msg("Failed to close kafka producer")
	}
	if cerr := a.storage.Close(); cerr != nil {
		a.logger.Error().Err(cerr).Msg("Failed to close storage client")
	}

	return err
}
