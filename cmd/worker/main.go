package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"assetgen/internal/adapter/repo"
	"assetgen/internal/executor"
	"assetgen/internal/infra"
	"assetgen/internal/notify"
	"assetgen/internal/providers"
	"assetgen/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	jobs := repo.NewJobRepository(pool)
	webhooks := repo.NewWebhookRepository(pool)
	deliveries := repo.NewDeliveryRepository(pool)
	usage := repo.NewUsageRepository(pool)

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	fileStore, err := storage.NewFileStore(storagePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	notifier := notify.New(webhooks, deliveries, logger, notify.Options{Timeout: cfg.WebhookTimeout})
	notifier.Start(ctx, 2)

	registry := providers.BuildRegistry(ctx, providers.CredentialsFromConfig(cfg), logger)

	exec := executor.New(jobs, usage, registry, fileStore, notifier, logger, executor.Options{
		ImageTimeout: cfg.ImageTimeout,
		VideoTimeout: cfg.VideoTimeout,
	})
	execPool := executor.NewPool(exec, jobs, logger, cfg.WorkerCount, cfg.JobPollInterval)

	// Grace covers the gap between the claim stamp and the provider deadline
	// plus the completion writes, so the sweep only reaps genuinely dead jobs.
	watchdog := executor.NewWatchdog(jobs, notifier, logger,
		cfg.ImageTimeout, cfg.VideoTimeout, cfg.JobPollInterval+cfg.WatchdogGrace)
	sweeper := notify.NewSweeper(deliveries, webhooks, notifier, logger)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.WatchdogSchedule, func() {
		if err := watchdog.Sweep(ctx); err != nil {
			logger.Error().Err(err).Msg("watchdog sweep failed")
		}
	}); err != nil {
		logger.Fatal().Err(err).Msg("worker: invalid watchdog schedule")
	}
	if _, err := scheduler.AddFunc(cfg.SweeperSchedule, func() {
		if err := sweeper.Sweep(ctx); err != nil {
			logger.Error().Err(err).Msg("webhook redelivery sweep failed")
		}
	}); err != nil {
		logger.Fatal().Err(err).Msg("worker: invalid sweeper schedule")
	}
	scheduler.Start()

	logger.Info().
		Int("workers", cfg.WorkerCount).
		Dur("poll_interval", cfg.JobPollInterval).
		Msg("worker started")

	execPool.Run(ctx)

	cronCtx := scheduler.Stop()
	<-cronCtx.Done()
	notifier.Wait()
	logger.Info().Msg("worker stopped")
}
