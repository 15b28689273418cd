package authz

import (
	"context"
	"log/slog"
)

// RepositoryPort defines the data access the authorization core requires.
type RepositoryPort interface {
	// PermissionsForUserAction returns every role-permission row granting
	// the action through any of the user's roles.
	PermissionsForUserAction(ctx context.Context, userID int64, action string) ([]Grant, error)
	// EffectiveGrants returns the user's full permission set, one entry
	// per permission, own-only ANDed across granting roles.
	EffectiveGrants(ctx context.Context, userID int64) ([]EffectiveGrant, error)
	// OwnedSupplierIDs returns the suppliers the user administers.
	OwnedSupplierIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Service resolves permission and ownership decisions. Checks never fail
// open: any data access error resolves as a deny.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService constructs the authorization service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// HasPermission reports whether the user holds the action and whether the
// grant is restricted to owned resources. A user granted the action through
// several roles is own-only restricted only when every granting role is;
// a single unrestricted role wins. With zero granting rows the own-only
// flag is forced false so a vacuous "all" cannot be misread as a grant.
func (s *Service) HasPermission(ctx context.Context, userID int64, action string) Decision {
	if userID <= 0 || action == "" {
		return Decision{}
	}

	grants, err := s.repo.PermissionsForUserAction(ctx, userID, action)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("authz: permission lookup failed, denying",
				slog.Int64("user_id", userID),
				slog.String("action", action),
				slog.Any("error", err))
		}
		return Decision{}
	}

	if len(grants) == 0 {
		return Decision{}
	}

	ownOnly := true
	for _, g := range grants {
		if !g.OwnOnly {
			ownOnly = false
			break
		}
	}
	return Decision{Granted: true, OwnOnly: ownOnly}
}

// EffectiveGrants resolves the user's complete permission set, used when
// embedding permission claims into issued tokens. Unlike HasPermission this
// propagates data errors: token issuance must not proceed on partial data.
func (s *Service) EffectiveGrants(ctx context.Context, userID int64) ([]EffectiveGrant, error) {
	return s.repo.EffectiveGrants(ctx, userID)
}

// OwnedSupplierIDs returns the set of supplier ids associated with the user.
// The set is read once per decision so the answer cannot change mid-check.
func (s *Service) OwnedSupplierIDs(ctx context.Context, userID int64) (map[int64]struct{}, error) {
	ids, err := s.repo.OwnedSupplierIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	owned := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		owned[id] = struct{}{}
	}
	return owned, nil
}

// OwnsSupplier reports whether the user administers the given supplier.
// Fails closed on lookup errors.
func (s *Service) OwnsSupplier(ctx context.Context, userID, supplierID int64) bool {
	owned, err := s.OwnedSupplierIDs(ctx, userID)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("authz: ownership lookup failed, denying",
				slog.Int64("user_id", userID),
				slog.Any("error", err))
		}
		return false
	}
	_, ok := owned[supplierID]
	return ok
}

// OwnsAnySupplier reports whether any of the given supplier ids belongs to
// the user's owned set. An empty candidate list never matches.
func (s *Service) OwnsAnySupplier(ctx context.Context, userID int64, supplierIDs []int64) bool {
	if len(supplierIDs) == 0 {
		return false
	}
	owned, err := s.OwnedSupplierIDs(ctx, userID)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("authz: ownership lookup failed, denying",
				slog.Int64("user_id", userID),
				slog.Any("error", err))
		}
		return false
	}
	for _, id := range supplierIDs {
		if _, ok := owned[id]; ok {
			return true
		}
	}
	return false
}

// OwnerFunc extracts the owning supplier id from a resource.
type OwnerFunc[T any] func(T) int64

// CanAccessOwnResource tests whether the resource's owning supplier belongs
// to the caller's owned set. Resources without an owning supplier (extractor
// returns a non-positive id) are never own-accessible.
func CanAccessOwnResource[T any](ctx context.Context, s *Service, userID int64, resource T, owner OwnerFunc[T]) bool {
	id := owner(resource)
	if id <= 0 {
		return false
	}
	return s.OwnsSupplier(ctx, userID, id)
}
