package suppliers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warebase/warebase/internal/platform/db"
	"github.com/warebase/warebase/internal/platform/httpx"
)

const supplierColumns = `id, name, email, phone, country, city, street, zip_code, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.Country, &s.City,
		&s.Street, &s.ZipCode, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, httpx.ErrNotFound
	}
	return s, err
}

// List returns all suppliers ordered by name.
func (r *Repository) List(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+supplierColumns+` FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListOwned returns the suppliers associated with the given user.
func (r *Repository) ListOwned(ctx context.Context, userID int64) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+supplierColumns+`
		FROM suppliers s
		JOIN supplier_users su ON su.supplier_id = s.id
		WHERE su.user_id = $1
		ORDER BY s.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListByCity returns suppliers located in the given city, case-insensitive.
func (r *Repository) ListByCity(ctx context.Context, city string) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE lower(city) = lower($1) ORDER BY name`, city)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Supplier, error) {
	var out []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.Country, &s.City,
			&s.Street, &s.ZipCode, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByID fetches a single supplier.
func (r *Repository) GetByID(ctx context.Context, id int64) (Supplier, error) {
	return scanSupplier(r.pool.QueryRow(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id))
}

// Create inserts a supplier.
func (r *Repository) Create(ctx context.Context, in UpsertInput) (Supplier, error) {
	return scanSupplier(r.pool.QueryRow(ctx, `
		INSERT INTO suppliers (name, email, phone, country, city, street, zip_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+supplierColumns,
		in.Name, in.Email, in.Phone, in.Country, in.City, in.Street, in.ZipCode))
}

// Update rewrites the supplier's fields.
func (r *Repository) Update(ctx context.Context, id int64, in UpsertInput) (Supplier, error) {
	return scanSupplier(r.pool.QueryRow(ctx, `
		UPDATE suppliers
		SET name = $2, email = $3, phone = $4, country = $5, city = $6, street = $7,
		    zip_code = $8, updated_at = now()
		WHERE id = $1
		RETURNING `+supplierColumns,
		id, in.Name, in.Email, in.Phone, in.Country, in.City, in.Street, in.ZipCode))
}

// Delete removes a supplier. Its products stay in the catalog but are
// detached and zeroed so they cannot be ordered until restocked; user
// associations are dropped in the same transaction.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE products SET quantity = 0, supplier_id = NULL, updated_at = now()
			WHERE supplier_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM supplier_users WHERE supplier_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrNotFound
		}
		return nil
	})
}
