package roles

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/warebase/warebase/internal/platform/httpx"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, name, description string) (Role, error)
	UpdateRole(ctx context.Context, id int64, name, description string) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
	ListPermissions(ctx context.Context) ([]Permission, error)
	EnsurePermission(ctx context.Context, p Permission) (Permission, error)
	ListRoleAssignments(ctx context.Context, roleID int64) ([]Assignment, error)
	ReplaceRoleAssignments(ctx context.Context, roleID int64, assignments []Assignment) error
}

// Service implements role and permission administration.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole returns a single role with its permission assignments.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, []Assignment, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, nil, err
	}
	assignments, err := s.repo.ListRoleAssignments(ctx, id)
	if err != nil {
		return Role{}, nil, err
	}
	return role, assignments, nil
}

// CreateRole creates a role after normalizing its name.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", httpx.ErrValidation)
	}
	return s.repo.CreateRole(ctx, name, description)
}

// UpdateRole renames or re-describes a role.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", httpx.ErrValidation)
	}
	return s.repo.UpdateRole(ctx, id, name, description)
}

// DeleteRole removes a role. Permission grants referencing it cascade away,
// so holders of the role lose those capabilities on their next check.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	return s.repo.DeleteRole(ctx, id)
}

// ListPermissions returns the full permission catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// SetRolePermissions replaces the role's permission set. Each assignment
// carries its own own-only flag; duplicates collapse to the last entry.
func (s *Service) SetRolePermissions(ctx context.Context, roleID int64, assignments []Assignment) error {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return err
	}
	seen := make(map[int64]bool, len(assignments))
	deduped := assignments[:0]
	for _, a := range assignments {
		if a.PermissionID <= 0 {
			return fmt.Errorf("%w: permission_id must be positive", httpx.ErrValidation)
		}
		if seen[a.PermissionID] {
			for i := range deduped {
				if deduped[i].PermissionID == a.PermissionID {
					deduped[i].OwnOnly = a.OwnOnly
				}
			}
			continue
		}
		seen[a.PermissionID] = true
		deduped = append(deduped, a)
	}
	if err := s.repo.ReplaceRoleAssignments(ctx, roleID, deduped); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("role permissions replaced",
			slog.Int64("role_id", roleID),
			slog.Int("count", len(deduped)))
	}
	return nil
}
