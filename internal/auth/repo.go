package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warebase/warebase/internal/platform/httpx"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, user User) (int64, error)
	RoleNames(ctx context.Context, userID int64) ([]string, error)
	RoleName(ctx context.Context, roleID int64) (string, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
	AddSupplierUser(ctx context.Context, userID, supplierID int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a non-deleted user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, lastname, email, password_hash, birth_date, created_at, is_deleted
		FROM users WHERE email = $1 AND NOT is_deleted`, email)

	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Lastname, &u.Email, &u.PasswordHash, &u.BirthDate, &u.CreatedAt, &u.IsDeleted); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user account.
func (r *PGRepository) CreateUser(ctx context.Context, user User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, lastname, email, password_hash, birth_date, created_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, false)
		RETURNING id`,
		user.Name, user.Lastname, user.Email, user.PasswordHash, user.BirthDate, time.Now().UTC(),
	).Scan(&id)
	return id, err
}

// RoleNames returns the names of all roles assigned to the user.
func (r *PGRepository) RoleNames(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1 ORDER BY r.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// RoleName resolves a role id to its name.
func (r *PGRepository) RoleName(ctx context.Context, roleID int64) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM roles WHERE id = $1`, roleID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", httpx.ErrNotFound
	}
	return name, err
}

// AssignRole links a user to a role.
func (r *PGRepository) AssignRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, roleID)
	return err
}

// AddSupplierUser records a supplier association for the user.
func (r *PGRepository) AddSupplierUser(ctx context.Context, userID, supplierID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO supplier_users (user_id, supplier_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, supplierID)
	return err
}

var _ Repository = (*PGRepository)(nil)
