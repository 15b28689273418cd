package orders

import "time"

// Status is the lifecycle state of an order.
type Status string

// Order lifecycle. Delivered and Cancelled are terminal.
const (
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// forward holds the only legal non-cancel transitions.
var forward = map[Status]Status{
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanAdvanceTo reports whether s may move to next via a status update.
// Cancellation is a separate operation and never a status update.
func (s Status) CanAdvanceTo(next Status) bool {
	return forward[s] == next
}

// Line is one product position in an order. Name, price and supplier are
// snapshots taken at checkout so later catalog changes do not rewrite
// history.
type Line struct {
	ID          int64   `json:"id"`
	OrderID     int64   `json:"order_id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int64   `json:"quantity"`
	SupplierID  int64   `json:"supplier_id"`
}

// Order is a purchase by one user from one supplier.
type Order struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	AddressID  int64     `json:"address_id"`
	Status     Status    `json:"status"`
	TotalPrice float64   `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Lines      []Line    `json:"lines,omitempty"`
}

// SupplierIDs returns the distinct suppliers referenced by the order lines.
func (o Order) SupplierIDs() []int64 {
	seen := make(map[int64]struct{}, len(o.Lines))
	var ids []int64
	for _, l := range o.Lines {
		if _, ok := seen[l.SupplierID]; ok {
			continue
		}
		seen[l.SupplierID] = struct{}{}
		ids = append(ids, l.SupplierID)
	}
	return ids
}
