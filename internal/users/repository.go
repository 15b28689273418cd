package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warebase/warebase/internal/platform/db"
	"github.com/warebase/warebase/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all non-deleted users.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, lastname, email, birth_date, created_at, is_deleted
		FROM users WHERE NOT is_deleted ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Lastname, &u.Email, &u.BirthDate,
			&u.CreatedAt, &u.IsDeleted); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetByID fetches a user with their role names.
func (r *Repository) GetByID(ctx context.Context, id int64) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, lastname, email, birth_date, created_at, is_deleted
		FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Lastname, &u.Email, &u.BirthDate, &u.CreatedAt, &u.IsDeleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, httpx.ErrNotFound
	}
	if err != nil {
		return User{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1 ORDER BY r.name`, id)
	if err != nil {
		return User{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return User{}, err
		}
		u.Roles = append(u.Roles, name)
	}
	return u, rows.Err()
}

// Update rewrites a user's profile fields.
func (r *Repository) Update(ctx context.Context, id int64, in UpdateInput) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET name = $2, lastname = $3, email = $4
		WHERE id = $1 AND NOT is_deleted
		RETURNING id, name, lastname, email, birth_date, created_at, is_deleted`,
		id, in.Name, in.Lastname, in.Email,
	).Scan(&u.ID, &u.Name, &u.Lastname, &u.Email, &u.BirthDate, &u.CreatedAt, &u.IsDeleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, httpx.ErrNotFound
	}
	return u, err
}

// SoftDelete marks a user deleted without dropping the row, so orders and
// audit history keep a valid reference.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_deleted = TRUE WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// RoleNamesByIDs resolves role ids to names.
func (r *Repository) RoleNamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM roles WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[int64]string, len(ids))
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

// ReplaceRoles swaps the user's role set and supplier associations in one
// transaction. Supplier links are dropped unless keepSuppliers is set, and a
// new link is added when addSupplierID is non-nil.
func (r *Repository) ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64, keepSuppliers bool, addSupplierID *int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return err
		}
		for _, roleID := range roleIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING`, userID, roleID); err != nil {
				return err
			}
		}
		if !keepSuppliers {
			if _, err := tx.Exec(ctx, `DELETE FROM supplier_users WHERE user_id = $1`, userID); err != nil {
				return err
			}
		}
		if addSupplierID != nil {
			if _, err := tx.Exec(ctx, `
				INSERT INTO supplier_users (user_id, supplier_id) VALUES ($1, $2)
				ON CONFLICT DO NOTHING`, userID, *addSupplierID); err != nil {
				return err
			}
		}
		return nil
	})
}
