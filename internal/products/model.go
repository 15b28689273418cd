package products

import "time"

// Product is a stocked catalog item. A nil SupplierID means the product was
// detached when its supplier was removed; such items carry zero stock until
// an administrator reassigns them.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Quantity    int64     `json:"quantity"`
	CategoryID  int64     `json:"category_id"`
	SupplierID  *int64    `json:"supplier_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Category groups products for browsing.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreateInput carries the fields required to add a product.
type CreateInput struct {
	Name        string
	Description string
	Price       float64
	Quantity    int64
	CategoryID  int64
	SupplierID  int64
}

// UpdateInput carries the writable fields of an existing product.
type UpdateInput struct {
	Name        string
	Description string
	Price       float64
	Quantity    int64
	CategoryID  int64
}
