package handlers

import (
	"net/http"

	"assetgen/internal/domain"
	"assetgen/internal/pricing"
)

func (a *App) UsageSummary(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	rows, err := a.Usage.Summary(r.Context(), userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	var total float64
	for _, row := range rows {
		total += row.TotalCostUSD
	}
	a.json(w, http.StatusOK, map[string]any{
		"providers":      rows,
		"total_cost_usd": total,
	})
}

// ProvidersRecommend suggests a provider for a resource type and an optional
// priority of cost, quality or balanced.
func (a *App) ProvidersRecommend(w http.ResponseWriter, r *http.Request) {
	resourceType := domain.JobType(r.URL.Query().Get("type"))
	if resourceType != domain.JobTypeImage && resourceType != domain.JobTypeVideo {
		a.error(w, http.StatusBadRequest, "bad_request", "type must be image or video")
		return
	}
	priority := r.URL.Query().Get("priority")
	if priority == "" {
		priority = "balanced"
	}
	a.json(w, http.StatusOK, map[string]any{
		"type":     string(resourceType),
		"priority": priority,
		"provider": pricing.RecommendProvider(resourceType, priority),
	})
}
