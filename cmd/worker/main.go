package main

import (
	"course-media/internal/app"
	"course-media/internal/config"

	"github.com/wb-go/wbf/zlog"
)

func main() {
	zlog.Init()

	cfg, err := config.MustLoad()
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to load config")
	}

	zlog.Logger.Info().
		Str("env", cfg.Env).
		Str("provider", cfg.Storage.Provider).
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.EventsTopic).
		Str("group_id", cfg.Kafka.GroupID).
		Int("concurrency", cfg.Worker.Concurrency).
		Int("max_requeues", cfg.Worker.MaxRequeues).
		Msg("Starting orphan cleanup worker")

	workerApp, err := app.NewWorkerApp(cfg, &zlog.Logger)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to create worker")
	}

	if err := workerApp.Run(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Worker failed")
	}

	zlog.Logger.Info().Msg("Worker exited")
}
