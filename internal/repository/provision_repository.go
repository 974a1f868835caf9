package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/provision-service/internal/domain"
)

// ProvisionRepository encapsulates provision persistence. Provisions are never
// deleted; status changes go through UpdateStatusIfUnchanged so concurrent
// writers are serialized by the version column.
type ProvisionRepository interface {
	Create(ctx context.Context, provision *domain.Provision) error
	GetByID(ctx context.Context, id string) (*domain.Provision, error)
	ListByOwner(ctx context.Context, personID string) ([]domain.Provision, error)
	ListAll(ctx context.Context) ([]domain.Provision, error)
	// UpdateStatusIfUnchanged persists status, completion date and notes only
	// when the stored version still equals expectedVersion. It returns
	// pgx.ErrNoRows when the row vanished and ErrVersionConflict when another
	// writer got there first.
	UpdateStatusIfUnchanged(ctx context.Context, provision *domain.Provision, expectedVersion int64) error
	ExistsByService(ctx context.Context, serviceID string) (bool, error)
}

type provisionRepository struct {
	pool *pgxpool.Pool
}

// NewProvisionRepository instantiates repository.
func NewProvisionRepository(pool *pgxpool.Pool) ProvisionRepository {
	return &provisionRepository{pool: pool}
}

func (r *provisionRepository) Create(ctx context.Context, provision *domain.Provision) error {
	const query = `
        INSERT INTO provisions (person_id, service_id, final_price, status, notes)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, request_date, version, updated_at`
	return r.pool.QueryRow(ctx, query,
		provision.PersonID,
		provision.ServiceID,
		provision.FinalPrice,
		provision.Status,
		provision.Notes,
	).Scan(&provision.ID, &provision.RequestDate, &provision.Version, &provision.UpdatedAt)
}

func (r *provisionRepository) GetByID(ctx context.Context, id string) (*domain.Provision, error) {
	const query = `
        SELECT id, person_id, service_id, request_date, completion_date, final_price, status, notes, version, updated_at
        FROM provisions WHERE id=$1`

	var provision domain.Provision
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&provision.ID,
		&provision.PersonID,
		&provision.ServiceID,
		&provision.RequestDate,
		&provision.CompletionDate,
		&provision.FinalPrice,
		&provision.Status,
		&provision.Notes,
		&provision.Version,
		&provision.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &provision, nil
}

func (r *provisionRepository) ListByOwner(ctx context.Context, personID string) ([]domain.Provision, error) {
	const query = `
        SELECT id, person_id, service_id, request_date, completion_date, final_price, status, notes, version, updated_at
        FROM provisions WHERE person_id=$1 ORDER BY request_date DESC`

	rows, err := r.pool.Query(ctx, query, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProvisions(rows)
}

func (r *provisionRepository) ListAll(ctx context.Context) ([]domain.Provision, error) {
	const query = `
        SELECT id, person_id, service_id, request_date, completion_date, final_price, status, notes, version, updated_at
        FROM provisions ORDER BY request_date DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProvisions(rows)
}

func (r *provisionRepository) UpdateStatusIfUnchanged(ctx context.Context, provision *domain.Provision, expectedVersion int64) error {
	const query = `
        UPDATE provisions SET status=$1, completion_date=$2, notes=$3, version=version+1, updated_at=NOW()
        WHERE id=$4 AND version=$5
        RETURNING version, updated_at`

	err := r.pool.QueryRow(ctx, query,
		provision.Status,
		provision.CompletionDate,
		provision.Notes,
		provision.ID,
		expectedVersion,
	).Scan(&provision.Version, &provision.UpdatedAt)
	if err == nil {
		return nil
	}
	if err != pgx.ErrNoRows {
		return err
	}

	// Zero rows: either the provision vanished or a concurrent writer bumped
	// the version. Disambiguate so callers can report not-found vs conflict.
	var exists bool
	if checkErr := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM provisions WHERE id=$1)`, provision.ID,
	).Scan(&exists); checkErr != nil {
		return checkErr
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return ErrVersionConflict
}

func (r *provisionRepository) ExistsByService(ctx context.Context, serviceID string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM provisions WHERE service_id=$1)`, serviceID,
	).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func scanProvisions(rows pgx.Rows) ([]domain.Provision, error) {
	var result []domain.Provision
	for rows.Next() {
		var provision domain.Provision
		if err := rows.Scan(
			&provision.ID,
			&provision.PersonID,
			&provision.ServiceID,
			&provision.RequestDate,
			&provision.CompletionDate,
			&provision.FinalPrice,
			&provision.Status,
			&provision.Notes,
			&provision.Version,
			&provision.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, provision)
	}
	return result, rows.Err()
}
