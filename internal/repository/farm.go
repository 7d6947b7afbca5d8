package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FarmRepository stores farm plots in PostgreSQL.
type FarmRepository struct {
	pool *pgxpool.Pool
}

// NewFarmRepository creates a farm repository backed by the pool.
func NewFarmRepository(pool *pgxpool.Pool) *FarmRepository {
	return &FarmRepository{pool: pool}
}

// Create inserts a farm and fills in the generated timestamps.
func (r *FarmRepository) Create(ctx context.Context, f *Farm) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO farms (id, farmer_id, name, area_hectares, soil_type, irrigation,
			nitrogen, phosphorus, potassium, soil_ph, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		f.ID, f.FarmerID, f.Name, f.AreaHectares, f.SoilType, f.Irrigation,
		f.Nitrogen, f.Phosphorus, f.Potassium, f.SoilPH, f.Notes,
	).Scan(&f.CreatedAt, &f.UpdatedAt)
}

// GetByID fetches a farm by primary key.
func (r *FarmRepository) GetByID(ctx context.Context, id uuid.UUID) (*Farm, error) {
	row := r.pool.QueryRow(ctx, selectFarm+` WHERE id = $1`, id)
	return scanFarm(row)
}

// ListByFarmer returns all farms owned by a farmer, newest first.
func (r *FarmRepository) ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]Farm, error) {
	rows, err := r.pool.Query(ctx, selectFarm+` WHERE farmer_id = $1 ORDER BY created_at DESC`, farmerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	farms := []Farm{}
	for rows.Next() {
		f, err := scanFarm(rows)
		if err != nil {
			return nil, err
		}
		farms = append(farms, *f)
	}
	return farms, rows.Err()
}

// Update rewrites the mutable farm fields.
func (r *FarmRepository) Update(ctx context.Context, f *Farm) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE farms
		SET name = $2, area_hectares = $3, soil_type = $4, irrigation = $5,
			nitrogen = $6, phosphorus = $7, potassium = $8, soil_ph = $9,
			notes = $10, updated_at = now()
		WHERE id = $1`,
		f.ID, f.Name, f.AreaHectares, f.SoilType, f.Irrigation,
		f.Nitrogen, f.Phosphorus, f.Potassium, f.SoilPH, f.Notes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a farm.
func (r *FarmRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM farms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of farms on the platform.
func (r *FarmRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM farms`).Scan(&n)
	return n, err
}

const selectFarm = `
	SELECT id, farmer_id, name, area_hectares, soil_type, irrigation,
		nitrogen, phosphorus, potassium, soil_ph, notes, created_at, updated_at
	FROM farms`

func scanFarm(row pgx.Row) (*Farm, error) {
	var f Farm
	err := row.Scan(&f.ID, &f.FarmerID, &f.Name, &f.AreaHectares, &f.SoilType,
		&f.Irrigation, &f.Nitrogen, &f.Phosphorus, &f.Potassium, &f.SoilPH,
		&f.Notes, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}
