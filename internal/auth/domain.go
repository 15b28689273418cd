package auth

import "time"

// Role names seeded at provisioning time. Authorization decisions never
// branch on these directly; they only matter for registration wiring and
// token claims.
const (
	RoleAdmin    = "admin"
	RoleClient   = "client"
	RoleSupplier = "usersupplier"
)

// User represents a user account.
type User struct {
	ID           int64
	Name         string
	Lastname     string
	Email        string
	PasswordHash string
	BirthDate    time.Time
	CreatedAt    time.Time
	IsDeleted    bool
}
