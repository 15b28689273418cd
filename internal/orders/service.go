package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/warebase/warebase/internal/addresses"
	"github.com/warebase/warebase/internal/authz"
	"github.com/warebase/warebase/internal/cart"
	"github.com/warebase/warebase/internal/platform/httpx"
	"github.com/warebase/warebase/internal/products"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	GetWithLines(ctx context.Context, id int64) (Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	ListBySuppliers(ctx context.Context, supplierIDs []int64) ([]Order, error)
	CreateWithStock(ctx context.Context, orders []Order) ([]Order, error)
	Cancel(ctx context.Context, order Order) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

// AddressBook is the slice of the address service checkout needs.
type AddressBook interface {
	GetByID(ctx context.Context, id int64) (addresses.Address, error)
}

// CartPort is the slice of the cart service checkout needs.
type CartPort interface {
	Items(ctx context.Context, userID int64) ([]cart.Item, error)
	Clear(ctx context.Context, userID int64) error
}

// Catalog is the slice of the product service checkout needs.
type Catalog interface {
	Get(ctx context.Context, id int64) (products.Product, error)
}

// Enqueuer hands follow-up work to the background worker.
type Enqueuer interface {
	EnqueueStockAudit(ctx context.Context, orderID int64) error
}

// Service implements the order lifecycle. Every mutating operation checks,
// in order: the order exists, the caller holds the action, the caller owns
// the resource when the grant is own-only, and the transition is legal.
type Service struct {
	repo       RepositoryPort
	authorizer *authz.Service
	addresses  AddressBook
	carts      CartPort
	catalog    Catalog
	enqueuer   Enqueuer
	logger     *slog.Logger
}

// NewService constructs a Service. enqueuer may be nil when no worker runs.
func NewService(repo RepositoryPort, authorizer *authz.Service, addressBook AddressBook,
	carts CartPort, catalog Catalog, enqueuer Enqueuer, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		authorizer: authorizer,
		addresses:  addressBook,
		carts:      carts,
		catalog:    catalog,
		enqueuer:   enqueuer,
		logger:     logger,
	}
}

// Checkout turns the caller's cart into orders, one per supplier. The whole
// operation is atomic: stock is decremented with an availability check and
// nothing is persisted if any line cannot be covered.
func (s *Service) Checkout(ctx context.Context, ident authz.Identity, addressID int64) ([]Order, error) {
	addr, err := s.addresses.GetByID(ctx, addressID)
	if err != nil {
		return nil, err
	}
	if addr.UserID != ident.UserID {
		return nil, httpx.ErrForbidden
	}

	items, err := s.carts.Items(ctx, ident.UserID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", httpx.ErrValidation)
	}

	bySupplier := make(map[int64]*Order)
	for _, item := range items {
		p, err := s.catalog.Get(ctx, item.ProductID)
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %d is no longer available", httpx.ErrValidation, item.ProductID)
		}
		if err != nil {
			return nil, err
		}
		if p.SupplierID == nil {
			return nil, fmt.Errorf("%w: product %q cannot be ordered", httpx.ErrValidation, p.Name)
		}
		if p.Quantity < item.Quantity {
			return nil, fmt.Errorf("%w: only %d of %q in stock", httpx.ErrValidation, p.Quantity, p.Name)
		}

		o, ok := bySupplier[*p.SupplierID]
		if !ok {
			o = &Order{UserID: ident.UserID, AddressID: addressID, Status: StatusProcessing}
			bySupplier[*p.SupplierID] = o
		}
		o.Lines = append(o.Lines, Line{
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Quantity:    item.Quantity,
			SupplierID:  *p.SupplierID,
		})
		o.TotalPrice += p.Price * float64(item.Quantity)
	}

	// Deterministic order across suppliers keeps checkout reproducible.
	supplierIDs := make([]int64, 0, len(bySupplier))
	for id := range bySupplier {
		supplierIDs = append(supplierIDs, id)
	}
	sort.Slice(supplierIDs, func(i, j int) bool { return supplierIDs[i] < supplierIDs[j] })
	drafts := make([]Order, 0, len(supplierIDs))
	for _, id := range supplierIDs {
		drafts = append(drafts, *bySupplier[id])
	}

	created, err := s.repo.CreateWithStock(ctx, drafts)
	if err != nil {
		return nil, err
	}
	if err := s.carts.Clear(ctx, ident.UserID); err != nil && s.logger != nil {
		s.logger.Error("cart clear after checkout failed",
			slog.Int64("user_id", ident.UserID), slog.Any("error", err))
	}
	return created, nil
}

// Cancel aborts an order. Buyers with an own-only grant may cancel only
// their own orders and only while still processing; an unrestricted grant
// may also cancel shipped orders. Terminal orders are never cancellable.
// Stock returns to the shelf and the total drops to zero.
func (s *Service) Cancel(ctx context.Context, ident authz.Identity, orderID int64) error {
	order, err := s.repo.GetWithLines(ctx, orderID)
	if err != nil {
		return err
	}

	d := s.authorizer.HasPermission(ctx, ident.UserID, authz.ActionCancelOrder)
	if !d.Granted {
		return httpx.ErrForbidden
	}
	if d.OwnOnly && order.UserID != ident.UserID {
		return httpx.ErrForbidden
	}

	if order.Status.Terminal() {
		return fmt.Errorf("%w: order is already %s", httpx.ErrValidation, order.Status)
	}
	if d.OwnOnly && order.Status != StatusProcessing {
		return fmt.Errorf("%w: order has already shipped", httpx.ErrValidation)
	}

	if err := s.repo.Cancel(ctx, order); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("order cancelled",
			slog.Int64("order_id", orderID),
			slog.Int64("user_id", ident.UserID))
	}
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueStockAudit(ctx, orderID); err != nil && s.logger != nil {
			s.logger.Error("enqueue stock audit failed",
				slog.Int64("order_id", orderID), slog.Any("error", err))
		}
	}
	return nil
}

// UpdateStatus advances an order one step along Processing → Shipped →
// Delivered. Own-only holders must supply at least one line of the order.
func (s *Service) UpdateStatus(ctx context.Context, ident authz.Identity, orderID int64, next Status) error {
	order, err := s.repo.GetWithLines(ctx, orderID)
	if err != nil {
		return err
	}

	d := s.authorizer.HasPermission(ctx, ident.UserID, authz.ActionUpdateOrderStatus)
	if !d.Granted {
		return httpx.ErrForbidden
	}
	if d.OwnOnly && !s.authorizer.OwnsAnySupplier(ctx, ident.UserID, order.SupplierIDs()) {
		return httpx.ErrForbidden
	}

	if next == StatusCancelled {
		return fmt.Errorf("%w: cancellation is a separate operation", httpx.ErrValidation)
	}
	if order.Status.Terminal() {
		return fmt.Errorf("%w: order is already %s", httpx.ErrValidation, order.Status)
	}
	if !order.Status.CanAdvanceTo(next) {
		return fmt.Errorf("%w: cannot move from %s to %s", httpx.ErrValidation, order.Status, next)
	}

	return s.repo.UpdateStatus(ctx, orderID, next)
}

// Get returns one order. The buyer always sees their own; otherwise the
// caller needs the order-access action, and an own-only grant additionally
// requires supplying at least one line.
func (s *Service) Get(ctx context.Context, ident authz.Identity, orderID int64) (Order, error) {
	order, err := s.repo.GetWithLines(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if order.UserID == ident.UserID {
		return order, nil
	}

	d := s.authorizer.HasPermission(ctx, ident.UserID, authz.ActionAccessOrdersByUser)
	if !d.Granted {
		return Order{}, httpx.ErrForbidden
	}
	if d.OwnOnly && !s.authorizer.OwnsAnySupplier(ctx, ident.UserID, order.SupplierIDs()) {
		return Order{}, httpx.ErrForbidden
	}
	return order, nil
}

// ListMine returns the caller's own orders.
func (s *Service) ListMine(ctx context.Context, ident authz.Identity) ([]Order, error) {
	return s.repo.ListByUser(ctx, ident.UserID)
}

// ListByUser returns another user's orders. Own-only grants never widen
// beyond the caller themselves.
func (s *Service) ListByUser(ctx context.Context, ident authz.Identity, userID int64) ([]Order, error) {
	if userID == ident.UserID {
		return s.repo.ListByUser(ctx, userID)
	}
	d := s.authorizer.HasPermission(ctx, ident.UserID, authz.ActionAccessOrdersByUser)
	if !d.Granted || d.OwnOnly {
		return nil, httpx.ErrForbidden
	}
	return s.repo.ListByUser(ctx, userID)
}

// ListAll returns every order; requires an unrestricted order-access grant.
func (s *Service) ListAll(ctx context.Context, ident authz.Identity) ([]Order, error) {
	d := s.authorizer.HasPermission(ctx, ident.UserID, authz.ActionAccessOrdersByUser)
	if !d.Granted || d.OwnOnly {
		return nil, httpx.ErrForbidden
	}
	return s.repo.ListAll(ctx)
}

// ListForSupplier returns orders containing products of the caller's
// suppliers. Callers without any supplier association see an empty list.
func (s *Service) ListForSupplier(ctx context.Context, ident authz.Identity) ([]Order, error) {
	owned, err := s.authorizer.OwnedSupplierIDs(ctx, ident.UserID)
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(owned))
	for id := range owned {
		ids = append(ids, id)
	}
	return s.repo.ListBySuppliers(ctx, ids)
}
