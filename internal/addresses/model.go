package addresses

import "time"

// Address is a delivery destination owned by a single user.
type Address struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Country   string    `json:"country"`
	City      string    `json:"city"`
	Street    string    `json:"street"`
	ZipCode   string    `json:"zip_code"`
	CreatedAt time.Time `json:"created_at"`
}

// UpsertInput carries the writable address fields.
type UpsertInput struct {
	Country string
	City    string
	Street  string
	ZipCode string
}
