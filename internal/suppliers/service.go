package suppliers

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
	List(ctx context.Context) ([]Supplier, error)
	ListOwned(ctx context.Context, userID int64) ([]Supplier, error)
	ListByCity(ctx context.Context, city string) ([]Supplier, error)
	GetByID(ctx context.Context, id int64) (Supplier, error)
	Create(ctx context.Context, in UpsertInput) (Supplier, error)
	Update(ctx context.Context, id int64, in UpsertInput) (Supplier, error)
	Delete(ctx context.Context, id int64) error
}

// Service implements supplier management. Update and delete are qualified
// operations: a caller whose grant is own-only must be associated with the
// target supplier.
type Service struct {
	repo       RepositoryPort
	authorizer *authz.Service
	logger     *slog.Logger
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, authorizer *authz.Service, logger *slog.Logger) *Service {
	return &Service{repo: repo, authorizer: authorizer, logger: logger}
}

// List returns all suppliers.
func (s *Service) List(ctx context.Context) ([]Supplier, error) {
	return s.repo.List(ctx)
}

// ListOwned returns the suppliers associated with the caller.
func (s *Service) ListOwned(ctx context.Context, ident authz.Identity) ([]Supplier, error) {
	return s.repo.ListOwned(ctx, ident.UserID)
}

// ListByCity returns suppliers located in the given city.
func (s *Service) ListByCity(ctx context.Context, city string) ([]Supplier, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, fmt.Errorf("%w: city is required", httpx.ErrValidation)
	}
	return s.repo.ListByCity(ctx, city)
}

// Get returns a single supplier.
func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	return s.repo.GetByID(ctx, id)
}

// Create inserts a new supplier.
func (s *Service) Create(ctx context.Context, in UpsertInput) (Supplier, error) {
	if err := validateInput(in); err != nil {
		return Supplier{}, err
	}
	return s.repo.Create(ctx, in)
}

// Update rewrites a supplier. The target must exist before any permission is
// consulted so callers get a clean not-found for missing ids.
func (s *Service) Update(ctx context.Context, ident authz.Identity, id int64, in UpsertInput) (Supplier, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return Supplier{}, err
	}
	if err := validateInput(in); err != nil {
		return Supplier{}, err
	}
	if err := s.authorize(ctx, ident, authz.ActionUpdateSupplier, id); err != nil {
		return Supplier{}, err
	}
	return s.repo.Update(ctx, id, in)
}

// Delete removes a supplier; its products are zeroed and detached so stale
// stock cannot be ordered.
func (s *Service) Delete(ctx context.Context, ident authz.Identity, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.authorize(ctx, ident, authz.ActionDeleteSupplier, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("supplier deleted",
			slog.Int64("supplier_id", id),
			slog.Int64("user_id", ident.UserID))
	}
	return nil
}

func (s *Service) authorize(ctx context.Context, ident authz.Identity, action string, supplierID int64) error {
	d := s.authorizer.HasPermission(ctx, ident.UserID, action)
	if !d.Granted {
		return httpx.ErrForbidden
	}
	if d.OwnOnly && !s.authorizer.OwnsSupplier(ctx, ident.UserID, supplierID) {
		return httpx.ErrForbidden
	}
	return nil
}

func validateInput(in UpsertInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: supplier name is required", httpx.ErrValidation)
	}
	if strings.TrimSpace(in.Email) == "" {
		return fmt.Errorf("%w: supplier email is required", httpx.ErrValidation)
	}
	return nil
}
