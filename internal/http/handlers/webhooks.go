package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"assetgen/internal/domain"
)

type webhookRequest struct {
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   *string  `json:"secret"`
	IsActive *bool    `json:"is_active"`
}

type webhookView struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	HasSecret bool      `json:"has_secret"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func viewWebhook(wh *domain.Webhook) webhookView {
	return webhookView{
		ID:        wh.ID,
		URL:       wh.URL,
		Events:    wh.Events,
		HasSecret: wh.Secret != nil && *wh.Secret != "",
		IsActive:  wh.IsActive,
		CreatedAt: wh.CreatedAt,
		UpdatedAt: wh.UpdatedAt,
	}
}

func validWebhookRequest(req *webhookRequest) (string, bool) {
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "url must be a valid http(s) endpoint", false
	}
	if len(req.Events) == 0 {
		return "at least one event is required", false
	}
	for _, ev := range req.Events {
		if !domain.IsJobEvent(ev) {
			return "unknown event: " + ev, false
		}
	}
	return "", true
}

func (a *App) WebhooksCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if msg, ok := validWebhookRequest(&req); !ok {
		a.error(w, http.StatusBadRequest, "bad_request", msg)
		return
	}

	hook := &domain.Webhook{
		ID:       uuid.NewString(),
		OwnerID:  userID,
		URL:      req.URL,
		Events:   req.Events,
		Secret:   req.Secret,
		IsActive: true,
	}
	if req.IsActive != nil {
		hook.IsActive = *req.IsActive
	}
	if err := a.Webhooks.Create(r.Context(), hook); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, viewWebhook(hook))
}

func (a *App) WebhooksList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	hooks, err := a.Webhooks.ListByOwner(r.Context(), userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	views := make([]webhookView, len(hooks))
	for i := range hooks {
		views[i] = viewWebhook(&hooks[i])
	}
	a.json(w, http.StatusOK, map[string]any{"webhooks": views})
}

func (a *App) WebhooksGet(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	webhookID := chi.URLParam(r, "webhook_id")
	hook, err := a.Webhooks.GetForOwner(r.Context(), webhookID, userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, viewWebhook(hook))
}

func (a *App) WebhooksUpdate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	webhookID := chi.URLParam(r, "webhook_id")
	hook, err := a.Webhooks.GetForOwner(r.Context(), webhookID, userID)
	if err != nil {
		a.domainError(w, err)
		return
	}

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.URL != "" {
		hook.URL = req.URL
	}
	if len(req.Events) > 0 {
		hook.Events = req.Events
	}
	if req.Secret != nil {
		hook.Secret = req.Secret
	}
	if req.IsActive != nil {
		hook.IsActive = *req.IsActive
	}
	check := webhookRequest{URL: hook.URL, Events: hook.Events}
	if msg, ok := validWebhookRequest(&check); !ok {
		a.error(w, http.StatusBadRequest, "bad_request", msg)
		return
	}

	if err := a.Webhooks.Update(r.Context(), hook); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, viewWebhook(hook))
}

func (a *App) WebhooksDelete(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	webhookID := chi.URLParam(r, "webhook_id")
	if err := a.Webhooks.Delete(r.Context(), webhookID, userID); err != nil {
		a.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type deliveryView struct {
	ID           string    `json:"id"`
	Event        string    `json:"event"`
	JobID        string    `json:"job_id"`
	Outcome      string    `json:"outcome"`
	StatusCode   *int      `json:"status_code"`
	ErrorMessage *string   `json:"error_message"`
	Attempt      int       `json:"attempt"`
	AttemptedAt  time.Time `json:"attempted_at"`
}

func (a *App) WebhookDeliveries(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	webhookID := chi.URLParam(r, "webhook_id")
	limit := queryInt(r, "limit", 50)
	if limit > 200 {
		limit = 200
	}

	rows, err := a.Deliveries.ListByWebhook(r.Context(), webhookID, userID, limit)
	if err != nil {
		a.domainError(w, err)
		return
	}
	views := make([]deliveryView, len(rows))
	for i, d := range rows {
		views[i] = deliveryView{
			ID:           d.ID,
			Event:        d.Event,
			JobID:        d.JobID,
			Outcome:      string(d.Outcome),
			StatusCode:   d.StatusCode,
			ErrorMessage: d.ErrorMessage,
			Attempt:      d.Attempt,
			AttemptedAt:  d.AttemptedAt,
		}
	}
	a.json(w, http.StatusOK, map[string]any{"deliveries": views})
}
