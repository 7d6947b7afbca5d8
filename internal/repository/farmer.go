package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaches.
const uniqueViolation = "23505"

// FarmerRepository stores farmer accounts in PostgreSQL.
type FarmerRepository struct {
	pool *pgxpool.Pool
}

// NewFarmerRepository creates a farmer repository backed by the pool.
func NewFarmerRepository(pool *pgxpool.Pool) *FarmerRepository {
	return &FarmerRepository{pool: pool}
}

// Create inserts a farmer and fills in the generated timestamps.
func (r *FarmerRepository) Create(ctx context.Context, f *Farmer) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO farmers (id, code, name, phone, password_hash, district, state, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		f.ID, f.Code, f.Name, f.Phone, f.PasswordHash, f.District, f.State, f.Role,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicatePhone
		}
		return err
	}
	return nil
}

// GetByID fetches a farmer by primary key.
func (r *FarmerRepository) GetByID(ctx context.Context, id uuid.UUID) (*Farmer, error) {
	return r.scanOne(r.pool.QueryRow(ctx, selectFarmer+` WHERE id = $1`, id))
}

// GetByPhone fetches a farmer by phone number, used at login.
func (r *FarmerRepository) GetByPhone(ctx context.Context, phone string) (*Farmer, error) {
	return r.scanOne(r.pool.QueryRow(ctx, selectFarmer+` WHERE phone = $1`, phone))
}

// UpdateProfile updates the mutable profile fields.
func (r *FarmerRepository) UpdateProfile(ctx context.Context, f *Farmer) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE farmers
		SET name = $2, district = $3, state = $4, updated_at = now()
		WHERE id = $1`,
		f.ID, f.Name, f.District, f.State,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of registered farmers.
func (r *FarmerRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM farmers`).Scan(&n)
	return n, err
}

const selectFarmer = `
	SELECT id, code, name, phone, password_hash, district, state, role, created_at, updated_at
	FROM farmers`

func (r *FarmerRepository) scanOne(row pgx.Row) (*Farmer, error) {
	var f Farmer
	err := row.Scan(&f.ID, &f.Code, &f.Name, &f.Phone, &f.PasswordHash,
		&f.District, &f.State, &f.Role, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}
