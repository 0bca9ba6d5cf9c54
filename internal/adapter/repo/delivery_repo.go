package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"assetgen/internal/domain"
)

const deliveryColumns = `id, webhook_id, event, job_id, payload, outcome, status_code, error_message, attempt, attempted_at`

// DeliveryRepositoryPG is the append-only webhook delivery log.
type DeliveryRepositoryPG struct {
	pool *pgxpool.Pool
}

func NewDeliveryRepository(pool *pgxpool.Pool) *DeliveryRepositoryPG {
	return &DeliveryRepositoryPG{pool: pool}
}

func (r *DeliveryRepositoryPG) Append(ctx context.Context, d *domain.Delivery) error {
	query := `
INSERT INTO webhook_deliveries (id, webhook_id, event, job_id, payload, outcome, status_code, error_message, attempt)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING attempted_at;
`
	row := r.pool.QueryRow(ctx, query,
		d.ID, d.WebhookID, d.Event, d.JobID, d.Payload, d.Outcome, d.StatusCode, d.ErrorMessage, d.Attempt,
	)
	return row.Scan(&d.AttemptedAt)
}

// ListByWebhook returns the webhook's delivery history, newest first. The
// join enforces owner scoping without a denormalized owner column.
func (r *DeliveryRepositoryPG) ListByWebhook(ctx context.Context, webhookID, ownerID string, limit int) ([]domain.Delivery, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
SELECT d.id, d.webhook_id, d.event, d.job_id, d.payload, d.outcome, d.status_code, d.error_message, d.attempt, d.attempted_at
FROM webhook_deliveries d
JOIN webhooks w ON w.id = d.webhook_id
WHERE d.webhook_id = $1 AND w.owner_id = $2
ORDER BY d.attempted_at DESC
LIMIT $3;
`
	rows, err := r.pool.Query(ctx, query, webhookID, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDeliveries(rows)
}

// ListRetryable returns, per (webhook, job, event), the latest attempt when
// that attempt failed. Rows are restricted to active webhooks, attempts made
// since the cutoff, and attempt counters at or below maxAttempt.
func (r *DeliveryRepositoryPG) ListRetryable(ctx context.Context, since time.Time, maxAttempt int) ([]domain.Delivery, error) {
	query := `
SELECT ` + qualifyDeliveryColumns("d") + `
FROM webhook_deliveries d
JOIN webhooks w ON w.id = d.webhook_id
WHERE d.outcome = 'failure'
  AND w.is_active
  AND d.attempted_at >= $1
  AND d.attempt <= $2
  AND NOT EXISTS (
    SELECT 1 FROM webhook_deliveries later
    WHERE later.webhook_id = d.webhook_id
      AND later.job_id = d.job_id
      AND later.event = d.event
      AND later.attempt > d.attempt
  )
ORDER BY d.attempted_at ASC;
`
	rows, err := r.pool.Query(ctx, query, since, maxAttempt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDeliveries(rows)
}

func qualifyDeliveryColumns(alias string) string {
	return alias + ".id, " + alias + ".webhook_id, " + alias + ".event, " + alias + ".job_id, " +
		alias + ".payload, " + alias + ".outcome, " + alias + ".status_code, " + alias + ".error_message, " +
		alias + ".attempt, " + alias + ".attempted_at"
}

func collectDeliveries(rows pgx.Rows) ([]domain.Delivery, error) {
	var out []domain.Delivery
	for rows.Next() {
		var d domain.Delivery
		if err := rows.Scan(
			&d.ID, &d.WebhookID, &d.Event, &d.JobID, &d.Payload, &d.Outcome,
			&d.StatusCode, &d.ErrorMessage, &d.Attempt, &d.AttemptedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

var _ domain.DeliveryRepository = (*DeliveryRepositoryPG)(nil)
