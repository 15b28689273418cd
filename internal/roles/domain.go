package roles

import "time"

// Role represents a high-level permission grouping.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Permission represents an atomic capability, addressable both by its
// symbolic action name and by the HTTP route it guards.
type Permission struct {
	ID          int64  `json:"id"`
	Action      string `json:"action"`
	Method      string `json:"method"`
	Endpoint    string `json:"endpoint"`
	Description string `json:"description"`
}

// Assignment ties a permission to a role with its ownership qualifier.
type Assignment struct {
	PermissionID int64 `json:"permission_id"`
	OwnOnly      bool  `json:"own_only"`
}
