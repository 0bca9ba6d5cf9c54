package domain

import "time"

// BatchStatus is always derived from the live states of a batch's child jobs;
// it is never stored.
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
	BatchStatusPartial    BatchStatus = "partial"
	BatchStatusCancelled  BatchStatus = "cancelled"
)

// Batch is a named collection of jobs submitted as one unit. TotalJobs is
// fixed at creation; completed/failed counters live in the jobs table and are
// recomputed on demand.
type Batch struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	TotalJobs   int
	Cancelled   bool
	CreatedAt   time.Time
}

// BatchCounts is a live roll-up over a batch's child jobs.
type BatchCounts struct {
	Total     int
	Completed int
	Failed    int
}

// BatchProgress is the externally visible aggregate for a batch.
type BatchProgress struct {
	BatchID   string      `json:"batch_id"`
	Total     int         `json:"total"`
	Completed int         `json:"completed"`
	Failed    int         `json:"failed"`
	Status    BatchStatus `json:"status"`
}

// DeriveBatchStatus computes batch status from live child counts. A cancelled
// batch reports cancelled regardless of children: cancellation only blocks
// future submissions, already-dispatched jobs keep running to their terminal
// state and remain visible through the counters.
func DeriveBatchStatus(total, completed, failed int, cancelled bool) BatchStatus {
	terminal := completed + failed
	switch {
	case cancelled:
		return BatchStatusCancelled
	case total == 0:
		return BatchStatusPending
	case completed == total:
		return BatchStatusCompleted
	case failed == total:
		return BatchStatusFailed
	case terminal == total:
		return BatchStatusPartial
	case terminal == 0:
		return BatchStatusPending
	default:
		return BatchStatusProcessing
	}
}
