package domain

import (
	"context"
	"time"
)

// TransitionAttrs carries the terminal-state fields for a job transition.
// The store enforces that completed sets a result, failed sets an error, and
// every terminal transition carries a non-nil cost.
type TransitionAttrs struct {
	ResultURL    *string
	ErrorMessage *string
	CostUSD      *float64
}

// JobRepository is the job store: the sole source of truth for job state.
// Transition is the only mutation path after Create; it must be implemented
// as an atomic conditional update keyed on the expected current status so
// concurrent claims of the same job cannot both win.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	// Transition moves a job along one allowed edge. It returns
	// ErrInvalidTransition when the job exists but is not in the required
	// source status, and ErrNotFound when the id is unknown.
	Transition(ctx context.Context, jobID string, to JobStatus, attrs TransitionAttrs) (*Job, error)
	GetByID(ctx context.Context, jobID string) (*Job, error)
	GetForOwner(ctx context.Context, jobID, ownerID string) (*Job, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Job, int, error)
	// NextPendingID returns the oldest pending job id, or ErrNotFound when
	// the queue is empty. Claiming is left to Transition.
	NextPendingID(ctx context.Context) (string, error)
	// FailStale terminally fails processing jobs not touched since the
	// per-type cutoff and returns them so events can be emitted.
	FailStale(ctx context.Context, imageCutoff, videoCutoff time.Time, errMsg string) ([]Job, error)
	CountByBatch(ctx context.Context, batchID string) (BatchCounts, error)
}

// BatchRepository persists batch identity; progress is derived, not stored.
type BatchRepository interface {
	Create(ctx context.Context, batch *Batch) error
	GetByID(ctx context.Context, batchID string) (*Batch, error)
	GetForOwner(ctx context.Context, batchID, ownerID string) (*Batch, error)
	SetCancelled(ctx context.Context, batchID, ownerID string) error
}

// WebhookRepository persists webhook registrations.
type WebhookRepository interface {
	Create(ctx context.Context, webhook *Webhook) error
	Update(ctx context.Context, webhook *Webhook) error
	Delete(ctx context.Context, webhookID, ownerID string) error
	GetByID(ctx context.Context, webhookID string) (*Webhook, error)
	GetForOwner(ctx context.Context, webhookID, ownerID string) (*Webhook, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Webhook, error)
	// ListActiveForEvent returns the owner's active webhooks subscribed to
	// the named event.
	ListActiveForEvent(ctx context.Context, ownerID, event string) ([]Webhook, error)
}

// DeliveryRepository is the append-only webhook delivery log.
type DeliveryRepository interface {
	Append(ctx context.Context, delivery *Delivery) error
	ListByWebhook(ctx context.Context, webhookID, ownerID string, limit int) ([]Delivery, error)
	// ListRetryable returns, for each (webhook, job, event) whose most recent
	// attempt failed, that latest failed row. Results are restricted to
	// active webhooks, attempts not older than `since`, and attempt <= maxAttempt.
	ListRetryable(ctx context.Context, since time.Time, maxAttempt int) ([]Delivery, error)
}

// UsageRepository records billing usage for completed jobs.
type UsageRepository interface {
	Record(ctx context.Context, log *UsageLog) error
	Summary(ctx context.Context, ownerID string) ([]UsageSummaryRow, error)
}
