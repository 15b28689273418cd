// Package authz implements the dynamic, database-driven authorization core:
// role to permission resolution with own-only scoping, supplier ownership
// derivation, and the claims-embedded token variant.
package authz

import "context"

// Well-known permission actions.
const (
	ActionCancelOrder        = "CanCancelOrder"
	ActionUpdateOrderStatus  = "CanUpdateOrderStatus"
	ActionAccessOrdersByUser = "CanAccessOrdersByUser"
	ActionUpdateSupplier     = "CanUpdateSupplier"
	ActionDeleteSupplier     = "CanDeleteSupplier"
	ActionManageProducts     = "CanManageProducts"
	ActionManageUsers        = "CanManageUsers"
)

// Identity describes the authenticated caller. It is extracted from the
// bearer token once per request and passed explicitly to services.
type Identity struct {
	UserID int64
	Email  string
	Roles  []string

	// Claims carries token-embedded permission claims when the server
	// runs in claims mode. Empty in db mode.
	Claims []PermissionClaim
}

// HasRole reports whether the identity carries the named role.
func (id Identity) HasRole(name string) bool {
	for _, r := range id.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// Decision is the outcome of a permission check.
type Decision struct {
	Granted bool
	OwnOnly bool
}

// Grant is one role-permission row matching a (user, action) lookup.
type Grant struct {
	RoleID       int64
	PermissionID int64
	OwnOnly      bool
}

// EffectiveGrant is a user's resolved permission, one per distinct
// permission, with own-only already folded across granting roles.
type EffectiveGrant struct {
	Action   string
	Method   string
	Endpoint string
	OwnOnly  bool
}

type identityContextKey struct{}

// ContextWithIdentity stores the caller identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the caller identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
