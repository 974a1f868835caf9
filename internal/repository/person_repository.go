package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/provision-service/internal/domain"
)

// PersonRepository defines persistence access for accounts.
type PersonRepository interface {
	Create(ctx context.Context, person *domain.Person) error
	Update(ctx context.Context, person *domain.Person) error
	GetByID(ctx context.Context, id string) (*domain.Person, error)
	GetByEmail(ctx context.Context, email string) (*domain.Person, error)
}

type personRepository struct {
	pool *pgxpool.Pool
}

// NewPersonRepository returns a Postgres-backed implementation.
func NewPersonRepository(pool *pgxpool.Pool) PersonRepository {
	return &personRepository{pool: pool}
}

func (r *personRepository) Create(ctx context.Context, person *domain.Person) error {
	const query = `
        INSERT INTO persons (first_name, last_name, email, password_hash, role, profile_description)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		person.FirstName,
		person.LastName,
		person.Email,
		person.PasswordHash,
		person.Role,
		person.ProfileDescription,
	).Scan(&person.ID, &person.CreatedAt, &person.UpdatedAt)
}

func (r *personRepository) Update(ctx context.Context, person *domain.Person) error {
	const query = `
        UPDATE persons SET first_name=$1, last_name=$2, email=$3, password_hash=$4,
            profile_description=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.pool.Exec(ctx, query,
		person.FirstName,
		person.LastName,
		person.Email,
		person.PasswordHash,
		person.ProfileDescription,
		person.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *personRepository) GetByID(ctx context.Context, id string) (*domain.Person, error) {
	const query = `
        SELECT id, first_name, last_name, email, password_hash, role, profile_description, created_at, updated_at
        FROM persons WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *personRepository) GetByEmail(ctx context.Context, email string) (*domain.Person, error) {
	const query = `
        SELECT id, first_name, last_name, email, password_hash, role, profile_description, created_at, updated_at
        FROM persons WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *personRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Person, error) {
	var person domain.Person
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&person.ID,
		&person.FirstName,
		&person.LastName,
		&person.Email,
		&person.PasswordHash,
		&person.Role,
		&person.ProfileDescription,
		&person.CreatedAt,
		&person.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &person, nil
}
