package suppliers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warebase/warebase/internal/authz"
	"github.com/warebase/warebase/internal/platform/httpx"
)

type fakeRepo struct {
	suppliers map[int64]Supplier
	deleted   []int64
}

func newFakeRepo(ids ...int64) *fakeRepo {
	f := &fakeRepo{suppliers: make(map[int64]Supplier)}
	for _, id := range ids {
		f.suppliers[id] = Supplier{ID: id, Name: "acme", Email: "sales@acme.test"}
	}
	return f
}

func (f *fakeRepo) List(ctx context.Context) ([]Supplier, error) {
	out := make([]Supplier, 0, len(f.suppliers))
	for _, s := range f.suppliers {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeRepo) ListOwned(ctx context.Context, userID int64) ([]Supplier, error) {
	return nil, nil
}

func (f *fakeRepo) ListByCity(ctx context.Context, city string) ([]Supplier, error) {
	var out []Supplier
	for _, s := range f.suppliers {
		if s.City == city {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id int64) (Supplier, error) {
	s, ok := f.suppliers[id]
	if !ok {
		return Supplier{}, httpx.ErrNotFound
	}
	return s, nil
}

func (f *fakeRepo) Create(ctx context.Context, in UpsertInput) (Supplier, error) {
	s := Supplier{ID: int64(len(f.suppliers) + 1), Name: in.Name, Email: in.Email}
	f.suppliers[s.ID] = s
	return s, nil
}

func (f *fakeRepo) Update(ctx context.Context, id int64, in UpsertInput) (Supplier, error) {
	s := f.suppliers[id]
	s.Name = in.Name
	s.Email = in.Email
	f.suppliers[id] = s
	return s, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) error {
	delete(f.suppliers, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeAuthzRepo struct {
	grants map[string][]authz.Grant
	owned  []int64
}

func (f *fakeAuthzRepo) PermissionsForUserAction(ctx context.Context, userID int64, action string) ([]authz.Grant, error) {
	return f.grants[action], nil
}

func (f *fakeAuthzRepo) EffectiveGrants(ctx context.Context, userID int64) ([]authz.EffectiveGrant, error) {
	return nil, nil
}

func (f *fakeAuthzRepo) OwnedSupplierIDs(ctx context.Context, userID int64) ([]int64, error) {
	return f.owned, nil
}

func newTestService(repo RepositoryPort, grants map[string][]authz.Grant, owned ...int64) *Service {
	authorizer := authz.NewService(&fakeAuthzRepo{grants: grants, owned: owned}, nil)
	return NewService(repo, authorizer, nil)
}

var caller = authz.Identity{UserID: 7, Roles: []string{"usersupplier"}}

func unrestricted(action string) map[string][]authz.Grant {
	return map[string][]authz.Grant{action: {{RoleID: 1, PermissionID: 1, OwnOnly: false}}}
}

func ownOnly(action string) map[string][]authz.Grant {
	return map[string][]authz.Grant{action: {{RoleID: 3, PermissionID: 1, OwnOnly: true}}}
}

func TestUpdateWithUnrestrictedGrant(t *testing.T) {
	svc := newTestService(newFakeRepo(5), unrestricted(authz.ActionUpdateSupplier))

	got, err := svc.Update(context.Background(), caller, 5, UpsertInput{Name: "acme v2", Email: "x@acme.test"})
	require.NoError(t, err)
	require.Equal(t, "acme v2", got.Name)
}

func TestUpdateOwnOnlyAssociated(t *testing.T) {
	svc := newTestService(newFakeRepo(5), ownOnly(authz.ActionUpdateSupplier), 5)

	_, err := svc.Update(context.Background(), caller, 5, UpsertInput{Name: "acme v2", Email: "x@acme.test"})
	require.NoError(t, err)
}

func TestUpdateOwnOnlyNotAssociated(t *testing.T) {
	svc := newTestService(newFakeRepo(5), ownOnly(authz.ActionUpdateSupplier), 8)

	_, err := svc.Update(context.Background(), caller, 5, UpsertInput{Name: "acme v2", Email: "x@acme.test"})
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestUpdateWithoutGrant(t *testing.T) {
	svc := newTestService(newFakeRepo(5), nil)

	_, err := svc.Update(context.Background(), caller, 5, UpsertInput{Name: "acme v2", Email: "x@acme.test"})
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestUpdateMissingSupplierBeatsPermission(t *testing.T) {
	// Existence is checked before permission, so a caller without any
	// grant still sees 404 for a missing id, not 403.
	svc := newTestService(newFakeRepo(), nil)

	_, err := svc.Update(context.Background(), caller, 42, UpsertInput{Name: "x", Email: "x@y.z"})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestDeleteOwnOnlyAssociated(t *testing.T) {
	repo := newFakeRepo(5)
	svc := newTestService(repo, ownOnly(authz.ActionDeleteSupplier), 5)

	require.NoError(t, svc.Delete(context.Background(), caller, 5))
	require.Equal(t, []int64{5}, repo.deleted)
}

func TestDeleteOwnOnlyNotAssociated(t *testing.T) {
	repo := newFakeRepo(5)
	svc := newTestService(repo, ownOnly(authz.ActionDeleteSupplier))

	err := svc.Delete(context.Background(), caller, 5)
	require.ErrorIs(t, err, httpx.ErrForbidden)
	require.Empty(t, repo.deleted)
}

func TestListByCityRequiresCity(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	_, err := svc.ListByCity(context.Background(), "   ")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateRequiresNameAndEmail(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	_, err := svc.Create(context.Background(), UpsertInput{Email: "x@y.z"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), UpsertInput{Name: "acme"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
