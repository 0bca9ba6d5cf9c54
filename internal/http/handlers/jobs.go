package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"assetgen/internal/dispatch"
	"assetgen/internal/domain"
)

type jobSubmitRequest struct {
	Type      string          `json:"type"`
	Operation string          `json:"operation"`
	Provider  string          `json:"provider"`
	Model     string          `json:"model"`
	Config    json.RawMessage `json:"config"`
}

type jobView struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Operation    string          `json:"operation"`
	Provider     string          `json:"provider"`
	Model        string          `json:"model"`
	Status       string          `json:"status"`
	Config       json.RawMessage `json:"config,omitempty"`
	ResultURL    *string         `json:"result_url"`
	CostUSD      *float64        `json:"cost_usd"`
	ErrorMessage *string         `json:"error_message"`
	BatchID      *string         `json:"batch_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func viewJob(j *domain.Job) jobView {
	return jobView{
		ID:           j.ID,
		Type:         string(j.Type),
		Operation:    string(j.Operation),
		Provider:     j.Provider,
		Model:        j.Model,
		Status:       string(j.Status),
		Config:       json.RawMessage(j.Config),
		ResultURL:    j.ResultURL,
		CostUSD:      j.CostUSD,
		ErrorMessage: j.ErrorMessage,
		BatchID:      j.BatchID,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}

func (a *App) JobsSubmit(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req jobSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	job, err := a.Dispatcher.Submit(r.Context(), dispatch.Submission{
		OwnerID:   userID,
		Type:      domain.JobType(req.Type),
		Operation: domain.Operation(req.Operation),
		Provider:  req.Provider,
		Model:     req.Model,
		Config:    req.Config,
	})
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, viewJob(job))
}

func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	job, err := a.Jobs.GetForOwner(r.Context(), jobID, userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, viewJob(job))
}

func (a *App) JobsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	limit := queryInt(r, "limit", 50)
	if limit > 200 {
		limit = 200
	}
	offset := queryInt(r, "offset", 0)

	jobs, total, err := a.Jobs.ListByOwner(r.Context(), userID, limit, offset)
	if err != nil {
		a.domainError(w, err)
		return
	}
	views := make([]jobView, len(jobs))
	for i := range jobs {
		views[i] = viewJob(&jobs[i])
	}
	a.json(w, http.StatusOK, map[string]any{
		"jobs":   views,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
