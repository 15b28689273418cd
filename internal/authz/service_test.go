package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	grants    map[string][]Grant
	effective []EffectiveGrant
	owned     []int64
	err       error
	calls     int
}

func (f *fakeRepo) PermissionsForUserAction(ctx context.Context, userID int64, action string) ([]Grant, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.grants[action], nil
}

func (f *fakeRepo) EffectiveGrants(ctx context.Context, userID int64) ([]EffectiveGrant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.effective, nil
}

func (f *fakeRepo) OwnedSupplierIDs(ctx context.Context, userID int64) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.owned, nil
}

func TestHasPermissionNoGrantingRoles(t *testing.T) {
	svc := NewService(&fakeRepo{grants: map[string][]Grant{}}, nil)

	d := svc.HasPermission(context.Background(), 1, ActionCancelOrder)
	require.False(t, d.Granted)
	// Vacuous "all own-only" over zero rows must not surface as true.
	require.False(t, d.OwnOnly)
}

func TestHasPermissionMixedOwnOnly(t *testing.T) {
	repo := &fakeRepo{grants: map[string][]Grant{
		ActionUpdateOrderStatus: {
			{RoleID: 1, PermissionID: 10, OwnOnly: true},
			{RoleID: 2, PermissionID: 10, OwnOnly: false},
		},
	}}
	svc := NewService(repo, nil)

	d := svc.HasPermission(context.Background(), 7, ActionUpdateOrderStatus)
	require.True(t, d.Granted)
	// One unrestricted granting role wins over any own-only roles.
	require.False(t, d.OwnOnly)
}

func TestHasPermissionAllOwnOnly(t *testing.T) {
	repo := &fakeRepo{grants: map[string][]Grant{
		ActionCancelOrder: {
			{RoleID: 1, PermissionID: 3, OwnOnly: true},
			{RoleID: 4, PermissionID: 3, OwnOnly: true},
		},
	}}
	svc := NewService(repo, nil)

	d := svc.HasPermission(context.Background(), 7, ActionCancelOrder)
	require.True(t, d.Granted)
	require.True(t, d.OwnOnly)
}

func TestHasPermissionIdempotent(t *testing.T) {
	repo := &fakeRepo{grants: map[string][]Grant{
		ActionCancelOrder: {{RoleID: 1, PermissionID: 3, OwnOnly: true}},
	}}
	svc := NewService(repo, nil)

	first := svc.HasPermission(context.Background(), 7, ActionCancelOrder)
	second := svc.HasPermission(context.Background(), 7, ActionCancelOrder)
	require.Equal(t, first, second)
	require.Equal(t, 2, repo.calls)
}

func TestHasPermissionFailsClosed(t *testing.T) {
	svc := NewService(&fakeRepo{err: errors.New("store down")}, nil)

	d := svc.HasPermission(context.Background(), 7, ActionCancelOrder)
	require.False(t, d.Granted)
	require.False(t, d.OwnOnly)
}

func TestHasPermissionRejectsInvalidInput(t *testing.T) {
	svc := NewService(&fakeRepo{}, nil)

	require.False(t, svc.HasPermission(context.Background(), 0, ActionCancelOrder).Granted)
	require.False(t, svc.HasPermission(context.Background(), 1, "").Granted)
}

func TestOwnedSupplierIDs(t *testing.T) {
	svc := NewService(&fakeRepo{owned: []int64{3, 9}}, nil)

	owned, err := svc.OwnedSupplierIDs(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	require.Contains(t, owned, int64(3))
	require.Contains(t, owned, int64(9))
}

func TestOwnsSupplier(t *testing.T) {
	svc := NewService(&fakeRepo{owned: []int64{3}}, nil)

	require.True(t, svc.OwnsSupplier(context.Background(), 1, 3))
	require.False(t, svc.OwnsSupplier(context.Background(), 1, 4))
}

func TestOwnsSupplierFailsClosed(t *testing.T) {
	svc := NewService(&fakeRepo{err: errors.New("store down")}, nil)

	require.False(t, svc.OwnsSupplier(context.Background(), 1, 3))
}

func TestOwnsAnySupplier(t *testing.T) {
	svc := NewService(&fakeRepo{owned: []int64{1}}, nil)

	// Any overlap suffices; full containment is not required.
	require.True(t, svc.OwnsAnySupplier(context.Background(), 5, []int64{1, 2}))
	require.False(t, svc.OwnsAnySupplier(context.Background(), 5, []int64{2}))
	require.False(t, svc.OwnsAnySupplier(context.Background(), 5, nil))
}

type stubProduct struct {
	ID         int64
	SupplierID int64
}

func TestCanAccessOwnResource(t *testing.T) {
	svc := NewService(&fakeRepo{owned: []int64{4}}, nil)
	owner := func(p stubProduct) int64 { return p.SupplierID }

	require.True(t, CanAccessOwnResource(context.Background(), svc, 1, stubProduct{ID: 10, SupplierID: 4}, owner))
	require.False(t, CanAccessOwnResource(context.Background(), svc, 1, stubProduct{ID: 11, SupplierID: 5}, owner))
	require.False(t, CanAccessOwnResource(context.Background(), svc, 1, stubProduct{ID: 12}, owner))
}
