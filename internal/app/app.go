package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	kafka_impl "course-media/internal/broker/kafka"
	"course-media/internal/config"
	media_h "course-media/internal/http-server/handler/media"
	"course-media/internal/http-server/router"
	"course-media/internal/repository/media/cloud"
	postgres_repo "course-media/internal/repository/media/db/postgres"
	media_uc "course-media/internal/usecase/media"
	"course-media/internal/usecase/processor"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

type App struct {
	cfg      *config.Config
	server   *http.Server
	logger   *zlog.Zerolog
	db       *dbpg.DB
	producer *kafka_impl.ProducerClient
	storage  io.Closer
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	retries := cfg.DefaultRetryStrategy()

	if err := postgres_repo.Migrate(cfg.DBDSN()); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	dbOpts := &dbpg.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	}

	db, err := dbpg.New(cfg.DBDSN(), []string{}, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	storage, storageCloser, err := cloud.New(context.Background(), cfg.Storage, logger)
	if err != nil {
		db.Master.Close()
		return nil, fmt.Errorf("failed to create storage provider: %w", err)
	}
	if !storage.IsConfigured() {
		logger.Warn().Str("backend", storage.Name()).Msg("Storage backend is not configured, uploads will be rejected")
	}

	imageRepo := postgres_repo.NewImagesRepository(db, retries)

	imageProcessor := processor.NewImageProcessor(processor.Options{
		MaxWidth:      cfg.Images.MaxWidth,
		MaxHeight:     cfg.Images.MaxHeight,
		ThumbnailSize: cfg.Images.ThumbnailSize,
		JPEGQuality:   cfg.Images.JPEGQuality,
		MaxPixels:     cfg.Images.MaxPixels,
	}, logger)

	producer := kafka_impl.NewProducerClient(cfg)
	publisher := kafka_impl.NewEventPublisher(producer, retries)

	mediaUsecase := media_uc.NewMediaUsecase(imageRepo, storage, imageProcessor, publisher, cfg.Images.MaxUploadSize, logger)

	mediaHandler := media_h.NewMediaHandler(mediaUsecase, cfg.Images.MaxUploadSize, logger)

	h := &router.Handler{
		MediaHandler: mediaHandler,
	}

	mux := router.SetupRouter(h, cfg.Server.AllowedOrigins, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:      cfg,
		server:   server,
		logger:   logger,
		db:       db,
		producer: producer,
		storage:  storageCloser,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Str("addr", a.cfg.Server.Addr).Str("provider", a.cfg.Storage.Provider).Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleSignals(cancel, a.logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		a.close()
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}

		a.close()

		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

func (a *App) close() {
	if a.db != nil && a.db.Master != nil {
		a.db.Master.Close()
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close kafka producer")
		}
	}

	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close storage client")
		}
	}
}

func handleSignals(cancel context.CancelFunc, logger *zlog.Zerolog) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("Received signal")
	cancel()
}
