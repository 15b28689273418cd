package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/warebase/warebase/internal/platform/httpx"
	"github.com/warebase/warebase/internal/products"
)

// Catalog is the slice of the product service the cart needs.
type Catalog interface {
	Get(ctx context.Context, id int64) (products.Product, error)
}

// Service implements cart operations on top of the Redis store.
type Service struct {
	store   *Store
	catalog Catalog
	logger  *slog.Logger
}

// NewService constructs a Service.
func NewService(store *Store, catalog Catalog, logger *slog.Logger) *Service {
	return &Service{store: store, catalog: catalog, logger: logger}
}

// Get resolves the caller's cart against the catalog. Items whose product
// disappeared are silently dropped from the view.
func (s *Service) Get(ctx context.Context, userID int64) (Cart, error) {
	items, err := s.store.Items(ctx, userID)
	if err != nil {
		return Cart{}, err
	}

	cart := Cart{UserID: userID, Lines: make([]Line, 0, len(items))}
	for _, item := range items {
		p, err := s.catalog.Get(ctx, item.ProductID)
		if errors.Is(err, httpx.ErrNotFound) {
			continue
		}
		if err != nil {
			return Cart{}, err
		}
		line := Line{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  item.Quantity,
			LineTotal: p.Price * float64(item.Quantity),
		}
		cart.Lines = append(cart.Lines, line)
		cart.Total += line.LineTotal
	}
	return cart, nil
}

// SetItem adds a product to the cart or changes its quantity. The product
// must exist and carry enough stock to cover the requested amount.
func (s *Service) SetItem(ctx context.Context, userID, productID, quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", httpx.ErrValidation)
	}
	p, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return err
	}
	if p.Quantity < quantity {
		return fmt.Errorf("%w: only %d of %q in stock", httpx.ErrValidation, p.Quantity, p.Name)
	}
	return s.store.SetItem(ctx, userID, productID, quantity)
}

// RemoveItem drops one product from the cart.
func (s *Service) RemoveItem(ctx context.Context, userID, productID int64) error {
	return s.store.RemoveItem(ctx, userID, productID)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	return s.store.Clear(ctx, userID)
}

// Items exposes the raw cart contents, used by checkout.
func (s *Service) Items(ctx context.Context, userID int64) ([]Item, error) {
	return s.store.Items(ctx, userID)
}
