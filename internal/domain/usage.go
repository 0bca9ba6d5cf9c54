package domain

import "time"

// UsageLog is one billing record, written when a job completes. Quantity is
// the image count for image jobs and the duration in seconds for video jobs.
type UsageLog struct {
	ID           string
	OwnerID      string
	JobID        string
	Provider     string
	ResourceType JobType
	Quantity     int
	CostUSD      float64
	CreatedAt    time.Time
}

// UsageSummaryRow aggregates an owner's completed work for one provider.
type UsageSummaryRow struct {
	Provider     string  `json:"provider"`
	Jobs         int     `json:"jobs"`
	Quantity     int     `json:"quantity"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}
