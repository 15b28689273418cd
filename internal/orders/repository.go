package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warebase/warebase/internal/platform/db"
	"github.com/warebase/warebase/internal/platform/httpx"
)

const orderColumns = `id, user_id, address_id, status, total_price, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanOrders(rows pgx.Rows) ([]Order, error) {
	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.AddressID, &o.Status, &o.TotalPrice,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetWithLines fetches an order and its lines.
func (r *Repository) GetWithLines(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.UserID, &o.AddressID, &o.Status, &o.TotalPrice, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, httpx.ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, supplier_id
		FROM order_lines WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName,
			&l.UnitPrice, &l.Quantity, &l.SupplierID); err != nil {
			return Order{}, err
		}
		o.Lines = append(o.Lines, l)
	}
	return o, rows.Err()
}

// ListAll returns every order, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// ListByUser returns one user's orders, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// ListBySuppliers returns orders containing lines from any of the given
// suppliers.
func (r *Repository) ListBySuppliers(ctx context.Context, supplierIDs []int64) ([]Order, error) {
	if len(supplierIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT o.id, o.user_id, o.address_id, o.status, o.total_price, o.created_at, o.updated_at
		FROM orders o
		JOIN order_lines ol ON ol.order_id = o.id
		WHERE ol.supplier_id = ANY($1)
		ORDER BY o.created_at DESC`, supplierIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// CreateWithStock inserts the given orders and their lines while atomically
// decrementing product stock. The whole checkout fails if any product lacks
// stock by the time the transaction runs.
func (r *Repository) CreateWithStock(ctx context.Context, orders []Order) ([]Order, error) {
	created := make([]Order, 0, len(orders))
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		created = created[:0]
		for _, o := range orders {
			for _, l := range o.Lines {
				tag, err := tx.Exec(ctx, `
					UPDATE products SET quantity = quantity - $1, updated_at = now()
					WHERE id = $2 AND quantity >= $1`, l.Quantity, l.ProductID)
				if err != nil {
					return err
				}
				if tag.RowsAffected() == 0 {
					return fmt.Errorf("%w: insufficient stock for product %d", httpx.ErrValidation, l.ProductID)
				}
			}

			var id int64
			if err := tx.QueryRow(ctx, `
				INSERT INTO orders (user_id, address_id, status, total_price, created_at, updated_at)
				VALUES ($1, $2, $3, $4, now(), now())
				RETURNING id`,
				o.UserID, o.AddressID, o.Status, o.TotalPrice).Scan(&id); err != nil {
				return err
			}
			o.ID = id
			for i := range o.Lines {
				o.Lines[i].OrderID = id
				if err := tx.QueryRow(ctx, `
					INSERT INTO order_lines (order_id, product_id, product_name, unit_price, quantity, supplier_id)
					VALUES ($1, $2, $3, $4, $5, $6)
					RETURNING id`,
					id, o.Lines[i].ProductID, o.Lines[i].ProductName, o.Lines[i].UnitPrice,
					o.Lines[i].Quantity, o.Lines[i].SupplierID).Scan(&o.Lines[i].ID); err != nil {
					return err
				}
			}
			created = append(created, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Cancel marks the order cancelled, zeroes its total and puts every line's
// quantity back on stock, all in one transaction.
func (r *Repository) Cancel(ctx context.Context, order Order) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, l := range order.Lines {
			if _, err := tx.Exec(ctx, `
				UPDATE products SET quantity = quantity + $1, updated_at = now()
				WHERE id = $2`, l.Quantity, l.ProductID); err != nil {
				return err
			}
		}
		tag, err := tx.Exec(ctx, `
			UPDATE orders SET status = $2, total_price = 0, updated_at = now()
			WHERE id = $1`, order.ID, StatusCancelled)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrNotFound
		}
		return nil
	})
}

// UpdateStatus writes a new status.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
