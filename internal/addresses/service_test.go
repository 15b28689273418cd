package addresses

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warebase/warebase/internal/authz"
	"github.com/warebase/warebase/internal/platform/httpx"
)

type fakeRepo struct {
	addresses map[int64]Address
	nextID    int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{addresses: make(map[int64]Address)}
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID int64) ([]Address, error) {
	var out []Address
	for _, a := range f.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id int64) (Address, error) {
	a, ok := f.addresses[id]
	if !ok {
		return Address{}, httpx.ErrNotFound
	}
	return a, nil
}

func (f *fakeRepo) Create(ctx context.Context, userID int64, in UpsertInput) (Address, error) {
	f.nextID++
	a := Address{ID: f.nextID, UserID: userID, Country: in.Country, City: in.City, Street: in.Street}
	f.addresses[a.ID] = a
	return a, nil
}

func (f *fakeRepo) Update(ctx context.Context, id int64, in UpsertInput) (Address, error) {
	a := f.addresses[id]
	a.Country, a.City, a.Street, a.ZipCode = in.Country, in.City, in.Street, in.ZipCode
	f.addresses[id] = a
	return a, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id int64) error {
	delete(f.addresses, id)
	return nil
}

var (
	owner    = authz.Identity{UserID: 1}
	stranger = authz.Identity{UserID: 2}
	valid    = UpsertInput{Country: "NL", City: "Utrecht", Street: "Dorpsstraat 1"}
)

func TestCreateAndGetOwn(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	a, err := svc.Create(ctx, owner, valid)
	require.NoError(t, err)

	got, err := svc.Get(ctx, owner, a.ID)
	require.NoError(t, err)
	require.Equal(t, owner.UserID, got.UserID)
}

func TestGetForeignAddressForbidden(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	a, err := svc.Create(ctx, owner, valid)
	require.NoError(t, err)

	_, err = svc.Get(ctx, stranger, a.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestUpdateForeignAddressForbidden(t *testing.T) {
	svc := NewService(newFakeRepo())
	ctx := context.Background()

	a, err := svc.Create(ctx, owner, valid)
	require.NoError(t, err)

	_, err = svc.Update(ctx, stranger, a.ID, valid)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestDeleteOwn(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	a, err := svc.Create(ctx, owner, valid)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner, a.ID))
	_, err = svc.Get(ctx, owner, a.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Create(context.Background(), owner, UpsertInput{Country: "NL"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestMissingAddressNotFound(t *testing.T) {
	svc := NewService(newFakeRepo())

	_, err := svc.Get(context.Background(), owner, 42)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
