package authz

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed permission and ownership lookups.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// PermissionsForUserAction returns role-permission rows granting the action
// through any role assigned to the user.
func (r *Repository) PermissionsForUserAction(ctx context.Context, userID int64, action string) ([]Grant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT rp.role_id, rp.permission_id, rp.own_only
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE p.action = $2
		  AND rp.role_id IN (SELECT role_id FROM user_roles WHERE user_id = $1)`,
		userID, action)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []Grant
	for rows.Next() {
		var g Grant
		if err := rows.Scan(&g.RoleID, &g.PermissionID, &g.OwnOnly); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// EffectiveGrants returns the user's permission set with own-only folded
// per permission across all granting roles.
func (r *Repository) EffectiveGrants(ctx context.Context, userID int64) ([]EffectiveGrant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.action, p.method, p.endpoint, bool_and(rp.own_only) AS own_only
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id IN (SELECT role_id FROM user_roles WHERE user_id = $1)
		GROUP BY p.id, p.action, p.method, p.endpoint
		ORDER BY p.action`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []EffectiveGrant
	for rows.Next() {
		var g EffectiveGrant
		if err := rows.Scan(&g.Action, &g.Method, &g.Endpoint, &g.OwnOnly); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// OwnedSupplierIDs returns the suppliers associated with the user.
func (r *Repository) OwnedSupplierIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT supplier_id FROM supplier_users WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
