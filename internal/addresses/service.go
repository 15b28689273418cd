package addresses

import (
	"context"
	"fmt"
	"strings"

	"github.com/warebase/warebase/internal/authz"
	"github.com/warebase/warebase/internal/platform/httpx"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	ListByUser(ctx context.Context, userID int64) ([]Address, error)
	GetByID(ctx context.Context, id int64) (Address, error)
	Create(ctx context.Context, userID int64, in UpsertInput) (Address, error)
	Update(ctx context.Context, id int64, in UpsertInput) (Address, error)
	Delete(ctx context.Context, id int64) error
}

// Service implements address management. Addresses are strictly private:
// every operation is scoped to the caller, no role widens access.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns the caller's addresses.
func (s *Service) List(ctx context.Context, ident authz.Identity) ([]Address, error) {
	return s.repo.ListByUser(ctx, ident.UserID)
}

// Get returns one address if the caller owns it.
func (s *Service) Get(ctx context.Context, ident authz.Identity, id int64) (Address, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Address{}, err
	}
	if a.UserID != ident.UserID {
		return Address{}, httpx.ErrForbidden
	}
	return a, nil
}

// Create adds an address for the caller.
func (s *Service) Create(ctx context.Context, ident authz.Identity, in UpsertInput) (Address, error) {
	if err := validateInput(in); err != nil {
		return Address{}, err
	}
	return s.repo.Create(ctx, ident.UserID, in)
}

// Update rewrites an address the caller owns.
func (s *Service) Update(ctx context.Context, ident authz.Identity, id int64, in UpsertInput) (Address, error) {
	if _, err := s.Get(ctx, ident, id); err != nil {
		return Address{}, err
	}
	if err := validateInput(in); err != nil {
		return Address{}, err
	}
	return s.repo.Update(ctx, id, in)
}

// Delete removes an address the caller owns.
func (s *Service) Delete(ctx context.Context, ident authz.Identity, id int64) error {
	if _, err := s.Get(ctx, ident, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func validateInput(in UpsertInput) error {
	for name, value := range map[string]string{
		"country": in.Country,
		"city":    in.City,
		"street":  in.Street,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s is required", httpx.ErrValidation, name)
		}
	}
	return nil
}
