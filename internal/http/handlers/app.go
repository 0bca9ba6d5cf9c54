package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"assetgen/internal/batch"
	"assetgen/internal/dispatch"
	"assetgen/internal/domain"
	"assetgen/internal/infra"
)

// App bundles the HTTP handlers' collaborators.
type App struct {
	Dispatcher *dispatch.Dispatcher
	Batches    *batch.Coordinator
	Jobs       domain.JobRepository
	Webhooks   domain.WebhookRepository
	Deliveries domain.DeliveryRepository
	Usage      domain.UsageRepository
	Log        infra.Logger
}

// currentUserID resolves the caller identity. Authentication happens at the
// edge; the gateway forwards the resolved identity in this header.
func (a *App) currentUserID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, map[string]any{
		"error":   errCode,
		"message": msg,
	})
}

// domainError maps domain sentinel errors onto HTTP responses. Config errors
// additionally surface the offending field names.
func (a *App) domainError(w http.ResponseWriter, err error) {
	var cfgErr *domain.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		a.json(w, http.StatusBadRequest, map[string]any{
			"error":   "invalid_config",
			"message": cfgErr.Error(),
			"fields":  cfgErr.Fields,
		})
	case errors.Is(err, domain.ErrInvalidConfig):
		a.error(w, http.StatusBadRequest, "invalid_config", err.Error())
	case errors.Is(err, domain.ErrUnsupportedOperation):
		a.error(w, http.StatusBadRequest, "unsupported_operation", err.Error())
	case errors.Is(err, domain.ErrBatchCancelled):
		a.error(w, http.StatusConflict, "batch_cancelled", "batch is cancelled, no further jobs accepted")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	default:
		a.Log.Error().Err(err).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
