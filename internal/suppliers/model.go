package suppliers

import "time"

// Supplier is a vendor whose products the warehouse stocks. Supplier-role
// users are linked to one or more suppliers and may only manage those.
type Supplier struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Country   string    `json:"country"`
	City      string    `json:"city"`
	Street    string    `json:"street"`
	ZipCode   string    `json:"zip_code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertInput carries the writable supplier fields.
type UpsertInput struct {
	Name    string
	Email   string
	Phone   string
	Country string
	City    string
	Street  string
	ZipCode string
}
