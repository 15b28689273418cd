package users

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/warebase/warebase/internal/auth"
	"github.com/warebase/warebase/internal/platform/httpx"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	List(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	Update(ctx context.Context, id int64, in UpdateInput) (User, error)
	SoftDelete(ctx context.Context, id int64) error
	RoleNamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error)
	ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64, keepSuppliers bool, addSupplierID *int64) error
}

// Service implements administrative user management.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns all active users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get returns one user with their roles.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// Update rewrites a user's profile.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (User, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return User{}, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" {
		return User{}, fmt.Errorf("%w: email is required", httpx.ErrValidation)
	}
	return s.repo.Update(ctx, id, in)
}

// Delete soft-deletes a user; their orders and history stay intact.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("user deactivated", slog.Int64("user_id", id))
	}
	return nil
}

// SetRoles replaces a user's roles. Granting the supplier role requires a
// supplier id and links the user to it; dropping the role removes every
// supplier association so stale ownership cannot survive a downgrade.
func (s *Service) SetRoles(ctx context.Context, userID int64, change RoleChange) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if len(change.RoleIDs) == 0 {
		return fmt.Errorf("%w: at least one role is required", httpx.ErrValidation)
	}

	names, err := s.repo.RoleNamesByIDs(ctx, change.RoleIDs)
	if err != nil {
		return err
	}
	hasSupplierRole := false
	for _, id := range change.RoleIDs {
		name, ok := names[id]
		if !ok {
			return fmt.Errorf("%w: role %d does not exist", httpx.ErrValidation, id)
		}
		if name == auth.RoleSupplier {
			hasSupplierRole = true
		}
	}

	var addSupplierID *int64
	if hasSupplierRole {
		hadSupplierRole := false
		for _, name := range user.Roles {
			if name == auth.RoleSupplier {
				hadSupplierRole = true
			}
		}
		if !hadSupplierRole {
			if change.SupplierID == nil || *change.SupplierID <= 0 {
				return fmt.Errorf("%w: supplier_id is required when granting the supplier role", httpx.ErrValidation)
			}
			addSupplierID = change.SupplierID
		}
	}

	if err := s.repo.ReplaceRoles(ctx, userID, change.RoleIDs, hasSupplierRole, addSupplierID); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("user roles replaced",
			slog.Int64("user_id", userID),
			slog.Int("roles", len(change.RoleIDs)))
	}
	return nil
}
