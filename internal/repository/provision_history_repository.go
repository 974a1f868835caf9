package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/provision-service/internal/domain"
)

// ProvisionHistoryRepository stores the status-change audit trail.
type ProvisionHistoryRepository interface {
	Create(ctx context.Context, entry *domain.ProvisionHistory) error
	ListByProvision(ctx context.Context, provisionID string) ([]domain.ProvisionHistory, error)
}

type provisionHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewProvisionHistoryRepository instantiates repository.
func NewProvisionHistoryRepository(pool *pgxpool.Pool) ProvisionHistoryRepository {
	return &provisionHistoryRepository{pool: pool}
}

func (r *provisionHistoryRepository) Create(ctx context.Context, entry *domain.ProvisionHistory) error {
	const query = `
        INSERT INTO provision_history (provision_id, actor_id, actor_role, old_status, new_status, notes)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.ProvisionID,
		entry.ActorID,
		entry.ActorRole,
		entry.OldStatus,
		entry.NewStatus,
		entry.Notes,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *provisionHistoryRepository) ListByProvision(ctx context.Context, provisionID string) ([]domain.ProvisionHistory, error) {
	const query = `
        SELECT id, provision_id, actor_id, actor_role, old_status, new_status, notes, created_at
        FROM provision_history WHERE provision_id=$1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, provisionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProvisionHistory
	for rows.Next() {
		var entry domain.ProvisionHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.ProvisionID,
			&entry.ActorID,
			&entry.ActorRole,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.Notes,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
