package users

import "time"

// User is the administrative view of an account.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Lastname  string    `json:"lastname"`
	Email     string    `json:"email"`
	BirthDate time.Time `json:"birth_date"`
	CreatedAt time.Time `json:"created_at"`
	IsDeleted bool      `json:"is_deleted"`
	Roles     []string  `json:"roles,omitempty"`
}

// UpdateInput carries the writable profile fields.
type UpdateInput struct {
	Name     string
	Lastname string
	Email    string
}

// RoleChange replaces a user's role set. SupplierID is required when the
// new set contains the supplier role.
type RoleChange struct {
	RoleIDs    []int64
	SupplierID *int64
}
