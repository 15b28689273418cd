package products

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warebase/warebase/internal/platform/httpx"
)

const productColumns = `id, name, description, price, quantity, category_id, supplier_id, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity,
		&p.CategoryID, &p.SupplierID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, httpx.ErrNotFound
	}
	return p, err
}

func collect(rows pgx.Rows) ([]Product, error) {
	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity,
			&p.CategoryID, &p.SupplierID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// List returns the full catalog ordered by name.
func (r *Repository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListOwned returns products sourced from the suppliers the user administers.
func (r *Repository) ListOwned(ctx context.Context, userID int64) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.description, p.price, p.quantity, p.category_id,
		       p.supplier_id, p.created_at, p.updated_at
		FROM products p
		JOIN supplier_users su ON su.supplier_id = p.supplier_id
		WHERE su.user_id = $1
		ORDER BY p.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// GetByID fetches a single product.
func (r *Repository) GetByID(ctx context.Context, id int64) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

// ByCategory returns products in the given category.
func (r *Repository) ByCategory(ctx context.Context, categoryID int64) ([]Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE category_id = $1 ORDER BY name`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// BySupplier returns products sourced from the given supplier.
func (r *Repository) BySupplier(ctx context.Context, supplierID int64) ([]Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE supplier_id = $1 ORDER BY name`, supplierID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// LowStock returns products whose quantity fell to or below the threshold.
func (r *Repository) LowStock(ctx context.Context, threshold int64) ([]Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE quantity <= $1 ORDER BY quantity`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, in CreateInput) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `
		INSERT INTO products (name, description, price, quantity, category_id, supplier_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING `+productColumns,
		in.Name, in.Description, in.Price, in.Quantity, in.CategoryID, in.SupplierID))
}

// Update rewrites a product's writable fields.
func (r *Repository) Update(ctx context.Context, id int64, in UpdateInput) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, quantity = $5, category_id = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		id, in.Name, in.Description, in.Price, in.Quantity, in.CategoryID))
}

// ZeroQuantity empties a product's stock. Removal keeps the row so past
// order lines keep a valid reference.
func (r *Repository) ZeroQuantity(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET quantity = 0, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CategoryExists reports whether a category id is known.
func (r *Repository) CategoryExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// SupplierExists reports whether a supplier id is known.
func (r *Repository) SupplierExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM suppliers WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}
