package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"assetgen/internal/domain"
)

// UsageRepositoryPG records billing usage rows for completed jobs.
type UsageRepositoryPG struct {
	pool *pgxpool.Pool
}

func NewUsageRepository(pool *pgxpool.Pool) *UsageRepositoryPG {
	return &UsageRepositoryPG{pool: pool}
}

func (r *UsageRepositoryPG) Record(ctx context.Context, log *domain.UsageLog) error {
	query := `
INSERT INTO usage_logs (id, owner_id, job_id, provider, resource_type, quantity, cost_usd)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at;
`
	row := r.pool.QueryRow(ctx, query,
		log.ID, log.OwnerID, log.JobID, log.Provider, log.ResourceType, log.Quantity, log.CostUSD,
	)
	return row.Scan(&log.CreatedAt)
}

func (r *UsageRepositoryPG) Summary(ctx context.Context, ownerID string) ([]domain.UsageSummaryRow, error) {
	query := `
SELECT provider, count(*), coalesce(sum(quantity), 0), coalesce(sum(cost_usd), 0)
FROM usage_logs
WHERE owner_id = $1
GROUP BY provider
ORDER BY provider;
`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UsageSummaryRow
	for rows.Next() {
		var row domain.UsageSummaryRow
		if err := rows.Scan(&row.Provider, &row.Jobs, &row.Quantity, &row.TotalCostUSD); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

var _ domain.UsageRepository = (*UsageRepositoryPG)(nil)
