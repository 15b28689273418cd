package addresses

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warebase/warebase/internal/platform/httpx"
)

const addressColumns = `id, user_id, country, city, street, zip_code, created_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByUser returns all addresses of one user.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Address, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Address
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Country, &a.City, &a.Street, &a.ZipCode, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetByID fetches a single address.
func (r *Repository) GetByID(ctx context.Context, id int64) (Address, error) {
	var a Address
	err := r.pool.QueryRow(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id,
	).Scan(&a.ID, &a.UserID, &a.Country, &a.City, &a.Street, &a.ZipCode, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Address{}, httpx.ErrNotFound
	}
	return a, err
}

// Create inserts an address for a user.
func (r *Repository) Create(ctx context.Context, userID int64, in UpsertInput) (Address, error) {
	var a Address
	err := r.pool.QueryRow(ctx, `
		INSERT INTO addresses (user_id, country, city, street, zip_code, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING `+addressColumns,
		userID, in.Country, in.City, in.Street, in.ZipCode,
	).Scan(&a.ID, &a.UserID, &a.Country, &a.City, &a.Street, &a.ZipCode, &a.CreatedAt)
	return a, err
}

// Update rewrites an address.
func (r *Repository) Update(ctx context.Context, id int64, in UpsertInput) (Address, error) {
	var a Address
	err := r.pool.QueryRow(ctx, `
		UPDATE addresses SET country = $2, city = $3, street = $4, zip_code = $5
		WHERE id = $1
		RETURNING `+addressColumns,
		id, in.Country, in.City, in.Street, in.ZipCode,
	).Scan(&a.ID, &a.UserID, &a.Country, &a.City, &a.Street, &a.ZipCode, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Address{}, httpx.ErrNotFound
	}
	return a, err
}

// Delete removes an address.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
