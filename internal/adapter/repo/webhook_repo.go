package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"assetgen/internal/domain"
)

const webhookColumns = `id, owner_id, url, events, secret, is_active, created_at, updated_at`

// WebhookRepositoryPG persists webhook registrations. Events are stored as a
// TEXT[] column so subscription checks happen in SQL.
type WebhookRepositoryPG struct {
	pool *pgxpool.Pool
}

func NewWebhookRepository(pool *pgxpool.Pool) *WebhookRepositoryPG {
	return &WebhookRepositoryPG{pool: pool}
}

func (r *WebhookRepositoryPG) Create(ctx context.Context, webhook *domain.Webhook) error {
	query := `
INSERT INTO webhooks (id, owner_id, url, events, secret, is_active)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, query,
		webhook.ID, webhook.OwnerID, webhook.URL, webhook.Events, webhook.Secret, webhook.IsActive,
	)
	return row.Scan(&webhook.CreatedAt, &webhook.UpdatedAt)
}

func (r *WebhookRepositoryPG) Update(ctx context.Context, webhook *domain.Webhook) error {
	query := `
UPDATE webhooks
SET url = $3, events = $4, secret = $5, is_active = $6, updated_at = now()
WHERE id = $1 AND owner_id = $2
RETURNING updated_at;
`
	row := r.pool.QueryRow(ctx, query,
		webhook.ID, webhook.OwnerID, webhook.URL, webhook.Events, webhook.Secret, webhook.IsActive,
	)
	err := row.Scan(&webhook.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (r *WebhookRepositoryPG) Delete(ctx context.Context, webhookID, ownerID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM webhooks WHERE id = $1 AND owner_id = $2;`, webhookID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *WebhookRepositoryPG) GetByID(ctx context.Context, webhookID string) (*domain.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE id = $1;`
	return scanWebhookRow(r.pool.QueryRow(ctx, query, webhookID))
}

func (r *WebhookRepositoryPG) GetForOwner(ctx context.Context, webhookID, ownerID string) (*domain.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE id = $1 AND owner_id = $2;`
	return scanWebhookRow(r.pool.QueryRow(ctx, query, webhookID, ownerID))
}

func (r *WebhookRepositoryPG) ListByOwner(ctx context.Context, ownerID string) ([]domain.Webhook, error) {
	query := `SELECT ` + webhookColumns + ` FROM webhooks WHERE owner_id = $1 ORDER BY created_at DESC;`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWebhooks(rows)
}

func (r *WebhookRepositoryPG) ListActiveForEvent(ctx context.Context, ownerID, event string) ([]domain.Webhook, error) {
	query := `
SELECT ` + webhookColumns + `
FROM webhooks
WHERE owner_id = $1 AND is_active AND $2 = ANY(events)
ORDER BY created_at ASC;
`
	rows, err := r.pool.Query(ctx, query, ownerID, event)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWebhooks(rows)
}

func scanWebhookRow(row pgx.Row) (*domain.Webhook, error) {
	var w domain.Webhook
	err := row.Scan(&w.ID, &w.OwnerID, &w.URL, &w.Events, &w.Secret, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func collectWebhooks(rows pgx.Rows) ([]domain.Webhook, error) {
	var hooks []domain.Webhook
	for rows.Next() {
		var w domain.Webhook
		if err := rows.Scan(&w.ID, &w.OwnerID, &w.URL, &w.Events, &w.Secret, &w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		hooks = append(hooks, w)
	}
	return hooks, rows.Err()
}

var _ domain.WebhookRepository = (*WebhookRepositoryPG)(nil)
