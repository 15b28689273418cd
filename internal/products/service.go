package products

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/warebase/warebase/internal/authz"
	"github.com/warebase/warebase/internal/platform/httpx"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	List(ctx context.Context) ([]Product, error)
	ListOwned(ctx context.Context, userID int64) ([]Product, error)
	GetByID(ctx context.Context, id int64) (Product, error)
	ByCategory(ctx context.Context, categoryID int64) ([]Product, error)
	BySupplier(ctx context.Context, supplierID int64) ([]Product, error)
	LowStock(ctx context.Context, threshold int64) ([]Product, error)
	Create(ctx context.Context, in CreateInput) (Product, error)
	Update(ctx context.Context, id int64, in UpdateInput) (Product, error)
	ZeroQuantity(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]Category, error)
	CategoryExists(ctx context.Context, id int64) (bool, error)
	SupplierExists(ctx context.Context, id int64) (bool, error)
}

// Service implements catalog management. Writes are qualified operations: a
// caller whose manage grant is own-only may only touch products sourced from
// their own suppliers.
type Service struct {
	repo       RepositoryPort
	authorizer *authz.Service
	logger     *slog.Logger
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, authorizer *authz.Service, logger *slog.Logger) *Service {
	return &Service{repo: repo, authorizer: authorizer, logger: logger}
}

// List returns the full catalog.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// ListOwned returns the products sourced from the caller's suppliers.
func (s *Service) ListOwned(ctx context.Context, ident authz.Identity) ([]Product, error) {
	return s.repo.ListOwned(ctx, ident.UserID)
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	return s.repo.GetByID(ctx, id)
}

// ByCategory returns the products of one category.
func (s *Service) ByCategory(ctx context.Context, categoryID int64) ([]Product, error) {
	return s.repo.ByCategory(ctx, categoryID)
}

// BySupplier returns the products of one supplier.
func (s *Service) BySupplier(ctx context.Context, supplierID int64) ([]Product, error) {
	return s.repo.BySupplier(ctx, supplierID)
}

// ListCategories returns the category catalog.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// Create adds a product. New items must arrive with positive stock and price
// and reference an existing category and supplier; own-only holders may only
// stock their own suppliers.
func (s *Service) Create(ctx context.Context, ident authz.Identity, in CreateInput) (Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Product{}, fmt.Errorf("%w: product name is required", httpx.ErrValidation)
	}
	if in.Price <= 0 {
		return Product{}, fmt.Errorf("%w: price must be positive", httpx.ErrValidation)
	}
	if in.Quantity <= 0 {
		return Product{}, fmt.Errorf("%w: quantity must be positive", httpx.ErrValidation)
	}
	ok, err := s.repo.CategoryExists(ctx, in.CategoryID)
	if err != nil {
		return Product{}, err
	}
	if !ok {
		return Product{}, fmt.Errorf("%w: category %d does not exist", httpx.ErrValidation, in.CategoryID)
	}
	ok, err = s.repo.SupplierExists(ctx, in.SupplierID)
	if err != nil {
		return Product{}, err
	}
	if !ok {
		return Product{}, fmt.Errorf("%w: supplier %d does not exist", httpx.ErrValidation, in.SupplierID)
	}
	d := s.authorizer.HasPermission(ctx, ident.UserID, authz.ActionManageProducts)
	if !d.Granted {
		return Product{}, httpx.ErrForbidden
	}
	if d.OwnOnly && !s.authorizer.OwnsSupplier(ctx, ident.UserID, in.SupplierID) {
		return Product{}, httpx.ErrForbidden
	}
	return s.repo.Create(ctx, in)
}

// Update rewrites a product. Unlike create, zero price or stock is allowed
// so items can be marked unsellable without removing them.
func (s *Service) Update(ctx context.Context, ident authz.Identity, id int64, in UpdateInput) (Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return Product{}, fmt.Errorf("%w: product name is required", httpx.ErrValidation)
	}
	if in.Price < 0 {
		return Product{}, fmt.Errorf("%w: price must not be negative", httpx.ErrValidation)
	}
	if in.Quantity < 0 {
		return Product{}, fmt.Errorf("%w: quantity must not be negative", httpx.ErrValidation)
	}
	ok, err := s.repo.CategoryExists(ctx, in.CategoryID)
	if err != nil {
		return Product{}, err
	}
	if !ok {
		return Product{}, fmt.Errorf("%w: category %d does not exist", httpx.ErrValidation, in.CategoryID)
	}
	if err := s.authorize(ctx, ident, p); err != nil {
		return Product{}, err
	}
	return s.repo.Update(ctx, id, in)
}

// Delete empties a product's stock instead of dropping the row, preserving
// order history that references it.
func (s *Service) Delete(ctx context.Context, ident authz.Identity, id int64) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, ident, p); err != nil {
		return err
	}
	if err := s.repo.ZeroQuantity(ctx, id); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("product retired", slog.Int64("product_id", id))
	}
	return nil
}

// authorize re-resolves the manage grant so its own-only qualifier can be
// applied against the loaded product; the route guard only proves Granted.
// Detached products (no supplier) are reserved to unrestricted holders.
func (s *Service) authorize(ctx context.Context, ident authz.Identity, p Product) error {
	d := s.authorizer.HasPermission(ctx, ident.UserID, authz.ActionManageProducts)
	if !d.Granted {
		return httpx.ErrForbidden
	}
	if d.OwnOnly && !authz.CanAccessOwnResource(ctx, s.authorizer, ident.UserID, p, owningSupplier) {
		return httpx.ErrForbidden
	}
	return nil
}

func owningSupplier(p Product) int64 {
	if p.SupplierID == nil {
		return 0
	}
	return *p.SupplierID
}

// LowStock lists products at or below the given threshold.
func (s *Service) LowStock(ctx context.Context, threshold int64) ([]Product, error) {
	return s.repo.LowStock(ctx, threshold)
}
