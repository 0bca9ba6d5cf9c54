package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"assetgen/internal/domain"
)

// BatchRepositoryPG persists batch identity rows. Progress is never stored;
// it is derived from the child jobs on every read.
type BatchRepositoryPG struct {
	pool *pgxpool.Pool
}

func NewBatchRepository(pool *pgxpool.Pool) *BatchRepositoryPG {
	return &BatchRepositoryPG{pool: pool}
}

func (r *BatchRepositoryPG) Create(ctx context.Context, batch *domain.Batch) error {
	query := `
INSERT INTO batch_jobs (id, owner_id, name, description, total_jobs)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at;
`
	row := r.pool.QueryRow(ctx, query, batch.ID, batch.OwnerID, batch.Name, batch.Description, batch.TotalJobs)
	return row.Scan(&batch.CreatedAt)
}

func (r *BatchRepositoryPG) GetByID(ctx context.Context, batchID string) (*domain.Batch, error) {
	query := `
SELECT id, owner_id, name, description, total_jobs, cancelled, created_at
FROM batch_jobs
WHERE id = $1;
`
	return scanBatch(r.pool.QueryRow(ctx, query, batchID))
}

func (r *BatchRepositoryPG) GetForOwner(ctx context.Context, batchID, ownerID string) (*domain.Batch, error) {
	query := `
SELECT id, owner_id, name, description, total_jobs, cancelled, created_at
FROM batch_jobs
WHERE id = $1 AND owner_id = $2;
`
	return scanBatch(r.pool.QueryRow(ctx, query, batchID, ownerID))
}

// SetCancelled marks the batch so no further jobs can be submitted under it.
// Jobs already dispatched are unaffected.
func (r *BatchRepositoryPG) SetCancelled(ctx context.Context, batchID, ownerID string) error {
	query := `UPDATE batch_jobs SET cancelled = TRUE WHERE id = $1 AND owner_id = $2;`
	tag, err := r.pool.Exec(ctx, query, batchID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanBatch(row pgx.Row) (*domain.Batch, error) {
	var b domain.Batch
	err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Description, &b.TotalJobs, &b.Cancelled, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

var _ domain.BatchRepository = (*BatchRepositoryPG)(nil)
