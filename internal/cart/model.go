package cart

// Item is one product entry in a user's cart.
type Item struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// Line is a cart item joined with catalog data for display.
type Line struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int64   `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

// Cart is the resolved view of a user's cart.
type Cart struct {
	UserID int64   `json:"user_id"`
	Lines  []Line  `json:"lines"`
	Total  float64 `json:"total"`
}
