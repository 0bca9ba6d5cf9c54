package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"assetgen/internal/domain"
)

const jobColumns = `id, owner_id, job_type, operation, provider, model, config, status, result_url, cost_usd, error_message, batch_id, created_at, updated_at`

// JobRepositoryPG implements domain.JobRepository on PostgreSQL. Transition
// is a single conditional UPDATE keyed on the expected current status, so
// two concurrent writers can never both claim the same edge.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// Create inserts a new job record in pending state.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	query := `
INSERT INTO generation_jobs (id, owner_id, job_type, operation, provider, model, config, status, batch_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, query,
		job.ID,
		job.OwnerID,
		job.Type,
		job.Operation,
		job.Provider,
		job.Model,
		nullableBytes(job.Config),
		job.Status,
		job.BatchID,
	)
	return row.Scan(&job.CreatedAt, &job.UpdatedAt)
}

// Transition moves a job along one allowed edge of the state machine. The
// WHERE clause carries the expected source status; zero rows updated means
// either the job does not exist or someone else already moved it.
func (r *JobRepositoryPG) Transition(ctx context.Context, jobID string, to domain.JobStatus, attrs domain.TransitionAttrs) (*domain.Job, error) {
	from, ok := domain.TransitionSource(to)
	if !ok {
		return nil, domain.ErrInvalidTransition
	}

	query := `
UPDATE generation_jobs
SET status = $2,
    updated_at = now(),
    result_url = CASE WHEN $2 = 'completed' THEN $4 ELSE result_url END,
    error_message = CASE WHEN $2 = 'failed' THEN $5 ELSE error_message END,
    cost_usd = CASE WHEN $2 IN ('completed', 'failed') THEN COALESCE($6, 0) ELSE cost_usd END
WHERE id = $1 AND status = $3
RETURNING ` + jobColumns + `;
`
	row := r.pool.QueryRow(ctx, query, jobID, to, from, attrs.ResultURL, attrs.ErrorMessage, attrs.CostUSD)
	job, err := scanJob(row)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Disambiguate: unknown id vs. lost race / illegal edge.
	var exists bool
	check := `SELECT EXISTS (SELECT 1 FROM generation_jobs WHERE id = $1);`
	if err := r.pool.QueryRow(ctx, check, jobID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	return nil, domain.ErrInvalidTransition
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM generation_jobs WHERE id = $1;`
	job, err := scanJob(r.pool.QueryRow(ctx, query, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return job, err
}

// GetForOwner fetches a job scoped to its owner.
func (r *JobRepositoryPG) GetForOwner(ctx context.Context, jobID, ownerID string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM generation_jobs WHERE id = $1 AND owner_id = $2;`
	job, err := scanJob(r.pool.QueryRow(ctx, query, jobID, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return job, err
}

// ListByOwner returns a page of the owner's jobs, newest first, plus the
// total count for pagination. The count is a separate query so a page past
// the end still reports the true total.
func (r *JobRepositoryPG) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Job, int, error) {
	if limit <= 0 {
		limit = 50
	}

	var total int
	countQuery := `SELECT count(*) FROM generation_jobs WHERE owner_id = $1;`
	if err := r.pool.QueryRow(ctx, countQuery, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
SELECT ` + jobColumns + `
FROM generation_jobs
WHERE owner_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3;
`
	rows, err := r.pool.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		var job domain.Job
		if err := rows.Scan(
			&job.ID, &job.OwnerID, &job.Type, &job.Operation, &job.Provider, &job.Model,
			&job.Config, &job.Status, &job.ResultURL, &job.CostUSD, &job.ErrorMessage,
			&job.BatchID, &job.CreatedAt, &job.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
	}
	return jobs, total, rows.Err()
}

// NextPendingID returns the oldest pending job id; domain.ErrNotFound when
// the queue is empty. The CAS in Transition arbitrates between workers that
// pick up the same id.
func (r *JobRepositoryPG) NextPendingID(ctx context.Context) (string, error) {
	query := `
SELECT id
FROM generation_jobs
WHERE status = 'pending'
ORDER BY created_at ASC
LIMIT 1;
`
	var id string
	if err := r.pool.QueryRow(ctx, query).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return id, nil
}

// FailStale terminally fails processing jobs whose last update is older than
// the per-type cutoff, returning them so lifecycle events can be emitted.
func (r *JobRepositoryPG) FailStale(ctx context.Context, imageCutoff, videoCutoff time.Time, errMsg string) ([]domain.Job, error) {
	query := `
UPDATE generation_jobs
SET status = 'failed',
    error_message = $3,
    cost_usd = 0,
    updated_at = now()
WHERE status = 'processing'
  AND ((job_type = 'image' AND updated_at < $1) OR (job_type = 'video' AND updated_at < $2))
RETURNING ` + jobColumns + `;
`
	rows, err := r.pool.Query(ctx, query, imageCutoff, videoCutoff, errMsg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		var job domain.Job
		if err := rows.Scan(
			&job.ID, &job.OwnerID, &job.Type, &job.Operation, &job.Provider, &job.Model,
			&job.Config, &job.Status, &job.ResultURL, &job.CostUSD, &job.ErrorMessage,
			&job.BatchID, &job.CreatedAt, &job.UpdatedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// CountByBatch rolls up the live terminal counts of a batch's children.
func (r *JobRepositoryPG) CountByBatch(ctx context.Context, batchID string) (domain.BatchCounts, error) {
	query := `
SELECT count(*),
       count(*) FILTER (WHERE status = 'completed'),
       count(*) FILTER (WHERE status = 'failed')
FROM generation_jobs
WHERE batch_id = $1;
`
	var counts domain.BatchCounts
	err := r.pool.QueryRow(ctx, query, batchID).Scan(&counts.Total, &counts.Completed, &counts.Failed)
	return counts, err
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	if err := row.Scan(
		&job.ID, &job.OwnerID, &job.Type, &job.Operation, &job.Provider, &job.Model,
		&job.Config, &job.Status, &job.ResultURL, &job.CostUSD, &job.ErrorMessage,
		&job.BatchID, &job.CreatedAt, &job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &job, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
