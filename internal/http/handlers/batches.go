package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"assetgen/internal/batch"
	"assetgen/internal/dispatch"
	"assetgen/internal/domain"
)

type batchCreateRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Jobs        []jobSubmitRequest `json:"jobs"`
}

func (a *App) BatchCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req batchCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	specs := make([]dispatch.Submission, len(req.Jobs))
	for i, j := range req.Jobs {
		specs[i] = dispatch.Submission{
			Type:      domain.JobType(j.Type),
			Operation: domain.Operation(j.Operation),
			Provider:  j.Provider,
			Model:     j.Model,
			Config:    j.Config,
		}
	}

	created, jobs, err := a.Batches.Create(r.Context(), batch.CreateRequest{
		OwnerID:     userID,
		Name:        req.Name,
		Description: req.Description,
		Jobs:        specs,
	})
	if err != nil {
		a.domainError(w, err)
		return
	}

	views := make([]jobView, len(jobs))
	for i := range jobs {
		views[i] = viewJob(&jobs[i])
	}
	a.json(w, http.StatusAccepted, map[string]any{
		"batch_id":   created.ID,
		"name":       created.Name,
		"total_jobs": created.TotalJobs,
		"jobs":       views,
	})
}

func (a *App) BatchProgress(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	batchID := chi.URLParam(r, "batch_id")
	progress, err := a.Batches.Progress(r.Context(), batchID, userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, progress)
}

func (a *App) BatchCancel(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	batchID := chi.URLParam(r, "batch_id")
	if err := a.Batches.Cancel(r.Context(), batchID, userID); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"batch_id": batchID,
		"status":   string(domain.BatchStatusCancelled),
	})
}
