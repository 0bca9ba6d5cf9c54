package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"assetgen/internal/adapter/repo"
	"assetgen/internal/batch"
	"assetgen/internal/dispatch"
	"assetgen/internal/http/handlers"
	"assetgen/internal/http/httpapi"
	"assetgen/internal/infra"
	"assetgen/internal/notify"
	"assetgen/internal/providers"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	jobs := repo.NewJobRepository(pool)
	batches := repo.NewBatchRepository(pool)
	webhooks := repo.NewWebhookRepository(pool)
	deliveries := repo.NewDeliveryRepository(pool)
	usage := repo.NewUsageRepository(pool)

	// The API emits job.created through the same notifier pipeline the
	// worker uses for terminal events.
	notifier := notify.New(webhooks, deliveries, logger, notify.Options{Timeout: cfg.WebhookTimeout})
	notifier.Start(ctx, 2)

	registry := providers.BuildRegistry(ctx, providers.CredentialsFromConfig(cfg), logger)
	dispatcher := dispatch.New(jobs, batches, registry, notifier, logger)
	coordinator := batch.NewCoordinator(batches, jobs, dispatcher, logger)

	app := &handlers.App{
		Dispatcher: dispatcher,
		Batches:    coordinator,
		Jobs:       jobs,
		Webhooks:   webhooks,
		Deliveries: deliveries,
		Usage:      usage,
		Log:        logger,
	}

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app))

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	notifier.Wait()
	logger.Info().Msg("server stopped")
}
