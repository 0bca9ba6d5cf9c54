package httpapi

import (
	"net/http"

	"assetgen/internal/http/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Post("/", app.JobsSubmit)
		r.Get("/", app.JobsList)
		r.Get("/{job_id}", app.JobStatus)
	})

	r.Route("/v1/batches", func(r chi.Router) {
		r.Post("/", app.BatchCreate)
		r.Get("/{batch_id}/progress", app.BatchProgress)
		r.Post("/{batch_id}/cancel", app.BatchCancel)
	})

	r.Route("/v1/webhooks", func(r chi.Router) {
		r.Post("/", app.WebhooksCreate)
		r.Get("/", app.WebhooksList)
		r.Get("/{webhook_id}", app.WebhooksGet)
		r.Put("/{webhook_id}", app.WebhooksUpdate)
		r.Delete("/{webhook_id}", app.WebhooksDelete)
		r.Get("/{webhook_id}/deliveries", app.WebhookDeliveries)
	})

	r.Get("/v1/usage/summary", app.UsageSummary)
	r.Get("/v1/providers/recommend", app.ProvidersRecommend)

	return r
}
