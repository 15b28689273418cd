package products

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warebase/warebase/internal/authz"
	"github.com/warebase/warebase/internal/platform/httpx"
)

type fakeRepo struct {
	products   map[int64]Product
	categories map[int64]bool
	suppliers  map[int64]bool
	owned      map[int64][]Product
	nextID     int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		products:   make(map[int64]Product),
		categories: map[int64]bool{1: true},
		suppliers:  map[int64]bool{1: true, 2: true},
		owned:      make(map[int64][]Product),
	}
}

func (f *fakeRepo) List(ctx context.Context) ([]Product, error) { return nil, nil }

func (f *fakeRepo) ListOwned(ctx context.Context, userID int64) ([]Product, error) {
	return f.owned[userID], nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id int64) (Product, error) {
	p, ok := f.products[id]
	if !ok {
		return Product{}, httpx.ErrNotFound
	}
	return p, nil
}

func (f *fakeRepo) ByCategory(ctx context.Context, categoryID int64) ([]Product, error) {
	return nil, nil
}

func (f *fakeRepo) BySupplier(ctx context.Context, supplierID int64) ([]Product, error) {
	return nil, nil
}

func (f *fakeRepo) LowStock(ctx context.Context, threshold int64) ([]Product, error) {
	var out []Product
	for _, p := range f.products {
		if p.Quantity <= threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) Create(ctx context.Context, in CreateInput) (Product, error) {
	f.nextID++
	supplierID := in.SupplierID
	p := Product{
		ID: f.nextID, Name: in.Name, Price: in.Price, Quantity: in.Quantity,
		CategoryID: in.CategoryID, SupplierID: &supplierID,
	}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeRepo) Update(ctx context.Context, id int64, in UpdateInput) (Product, error) {
	p := f.products[id]
	p.Name, p.Price, p.Quantity, p.CategoryID = in.Name, in.Price, in.Quantity, in.CategoryID
	f.products[id] = p
	return p, nil
}

func (f *fakeRepo) ZeroQuantity(ctx context.Context, id int64) error {
	p, ok := f.products[id]
	if !ok {
		return httpx.ErrNotFound
	}
	p.Quantity = 0
	f.products[id] = p
	return nil
}

func (f *fakeRepo) ListCategories(ctx context.Context) ([]Category, error) { return nil, nil }

func (f *fakeRepo) CategoryExists(ctx context.Context, id int64) (bool, error) {
	return f.categories[id], nil
}

func (f *fakeRepo) SupplierExists(ctx context.Context, id int64) (bool, error) {
	return f.suppliers[id], nil
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

func newTestService(repo RepositoryPort, ownOnly bool, owned ...int64) *Service {
	grants := map[string][]authz.Grant{
		authz.ActionManageProducts: {{RoleID: 1, PermissionID: 1, OwnOnly: ownOnly}},
	}
	authorizer := authz.NewService(&fakeAuthzRepo{grants: grants, owned: owned}, nil)
	return NewService(repo, authorizer, nil)
}

var caller = authz.Identity{UserID: 7, Roles: []string{"usersupplier"}}

func validCreate() CreateInput {
	return CreateInput{Name: "widget", Price: 9.99, Quantity: 10, CategoryID: 1, SupplierID: 1}
}

func TestListOwnedScopesToCaller(t *testing.T) {
	repo := newFakeRepo()
	repo.owned[caller.UserID] = []Product{{ID: 1, Name: "widget"}}
	svc := newTestService(repo, true, 1)

	got, err := svc.ListOwned(context.Background(), caller)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "widget", got[0].Name)

	other, err := svc.ListOwned(context.Background(), authz.Identity{UserID: 8})
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestCreateProduct(t *testing.T) {
	svc := newTestService(newFakeRepo(), false)

	p, err := svc.Create(context.Background(), caller, validCreate())
	require.NoError(t, err)
	require.Equal(t, int64(10), p.Quantity)
}

func TestCreateRejectsNonPositiveStockAndPrice(t *testing.T) {
	svc := newTestService(newFakeRepo(), false)

	in := validCreate()
	in.Quantity = 0
	_, err := svc.Create(context.Background(), caller, in)
	require.ErrorIs(t, err, httpx.ErrValidation)

	in = validCreate()
	in.Price = 0
	_, err = svc.Create(context.Background(), caller, in)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateRejectsUnknownReferences(t *testing.T) {
	svc := newTestService(newFakeRepo(), false)

	in := validCreate()
	in.CategoryID = 99
	_, err := svc.Create(context.Background(), caller, in)
	require.ErrorIs(t, err, httpx.ErrValidation)

	in = validCreate()
	in.SupplierID = 99
	_, err = svc.Create(context.Background(), caller, in)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateOwnOnlyForeignSupplier(t *testing.T) {
	// Own-only manage grant, caller associated with supplier 2 only.
	svc := newTestService(newFakeRepo(), true, 2)

	_, err := svc.Create(context.Background(), caller, validCreate())
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestCreateOwnOnlyOwnSupplier(t *testing.T) {
	svc := newTestService(newFakeRepo(), true, 1)

	_, err := svc.Create(context.Background(), caller, validCreate())
	require.NoError(t, err)
}

func TestUpdateAllowsZeroStockAndPrice(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, false)
	created, err := svc.Create(context.Background(), caller, validCreate())
	require.NoError(t, err)

	got, err := svc.Update(context.Background(), caller, created.ID, UpdateInput{
		Name: "widget", Price: 0, Quantity: 0, CategoryID: 1,
	})
	require.NoError(t, err)
	require.Zero(t, got.Quantity)
	require.Zero(t, got.Price)
}

func TestUpdateRejectsNegatives(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, false)
	created, err := svc.Create(context.Background(), caller, validCreate())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), caller, created.ID, UpdateInput{
		Name: "widget", Price: -1, Quantity: 5, CategoryID: 1,
	})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Update(context.Background(), caller, created.ID, UpdateInput{
		Name: "widget", Price: 1, Quantity: -5, CategoryID: 1,
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateMissingProduct(t *testing.T) {
	svc := newTestService(newFakeRepo(), false)

	_, err := svc.Update(context.Background(), caller, 42, UpdateInput{
		Name: "widget", Price: 1, Quantity: 1, CategoryID: 1,
	})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUpdateOwnOnlyForeignProduct(t *testing.T) {
	// The product belongs to supplier 1; the caller administers supplier 2
	// under an own-only grant, so the write is refused.
	repo := newFakeRepo()
	unrestricted := newTestService(repo, false)
	created, err := unrestricted.Create(context.Background(), caller, validCreate())
	require.NoError(t, err)

	svc := newTestService(repo, true, 2)
	_, err = svc.Update(context.Background(), caller, created.ID, UpdateInput{
		Name: "widget", Price: 1, Quantity: 1, CategoryID: 1,
	})
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestUpdateOwnOnlyOwnProduct(t *testing.T) {
	repo := newFakeRepo()
	unrestricted := newTestService(repo, false)
	created, err := unrestricted.Create(context.Background(), caller, validCreate())
	require.NoError(t, err)

	svc := newTestService(repo, true, 1)
	_, err = svc.Update(context.Background(), caller, created.ID, UpdateInput{
		Name: "widget v2", Price: 1, Quantity: 1, CategoryID: 1,
	})
	require.NoError(t, err)
}

func TestDeleteZeroesQuantityOnly(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, false)
	created, err := svc.Create(context.Background(), caller, validCreate())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), caller, created.ID))

	// The row survives so order history stays intact.
	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Zero(t, got.Quantity)
}

func TestDeleteOwnOnlyForeignProduct(t *testing.T) {
	repo := newFakeRepo()
	unrestricted := newTestService(repo, false)
	created, err := unrestricted.Create(context.Background(), caller, validCreate())
	require.NoError(t, err)

	svc := newTestService(repo, true, 2)
	err = svc.Delete(context.Background(), caller, created.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(10), got.Quantity)
}

func TestDeleteOwnOnlyDetachedProduct(t *testing.T) {
	// A detached product has no owning supplier, so an own-only holder
	// cannot retire it.
	repo := newFakeRepo()
	repo.nextID = 1
	repo.products[1] = Product{ID: 1, Name: "orphan", Quantity: 3, CategoryID: 1}

	svc := newTestService(repo, true, 1)
	err := svc.Delete(context.Background(), caller, 1)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}
