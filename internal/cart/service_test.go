package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/warebase/warebase/internal/platform/httpx"
	"github.com/warebase/warebase/internal/products"
)

type fakeCatalog struct {
	items map[int64]products.Product
}

func (f *fakeCatalog) Get(ctx context.Context, id int64) (products.Product, error) {
	p, ok := f.items[id]
	if !ok {
		return products.Product{}, httpx.ErrNotFound
	}
	return p, nil
}

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(client, time.Hour)
	catalog := &fakeCatalog{items: map[int64]products.Product{
		1: {ID: 1, Name: "widget", Price: 2.50, Quantity: 10},
		2: {ID: 2, Name: "gadget", Price: 10.00, Quantity: 3},
	}}
	return NewService(store, catalog, nil), mr
}

func TestSetItemAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetItem(ctx, 7, 1, 4))
	require.NoError(t, svc.SetItem(ctx, 7, 2, 1))

	c, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	require.Len(t, c.Lines, 2)
	require.InDelta(t, 20.00, c.Total, 0.001)
}

func TestSetItemOverwritesQuantity(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetItem(ctx, 7, 1, 2))
	require.NoError(t, svc.SetItem(ctx, 7, 1, 5))

	c, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	require.Equal(t, int64(5), c.Lines[0].Quantity)
}

func TestSetItemRejectsOverstock(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.SetItem(context.Background(), 7, 2, 4)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestSetItemUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.SetItem(context.Background(), 7, 99, 1)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestRemoveItemAndClear(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetItem(ctx, 7, 1, 1))
	require.NoError(t, svc.SetItem(ctx, 7, 2, 1))

	require.NoError(t, svc.RemoveItem(ctx, 7, 1))
	c, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)

	require.NoError(t, svc.Clear(ctx, 7))
	c, err = svc.Get(ctx, 7)
	require.NoError(t, err)
	require.Empty(t, c.Lines)
}

func TestGetDropsVanishedProducts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetItem(ctx, 7, 1, 1))
	delete(svc.catalog.(*fakeCatalog).items, 1)

	c, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	require.Empty(t, c.Lines)
}

func TestCartExpiresWithTTL(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetItem(ctx, 7, 1, 1))
	mr.FastForward(2 * time.Hour)

	c, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	require.Empty(t, c.Lines)
}

func TestSweepRepairsPersistentKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.SetItem(ctx, 7, 1, 1))
	require.NoError(t, client.Persist(ctx, "cart:7").Err())

	repaired, err := store.SweepExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, repaired)
	require.Positive(t, mr.TTL("cart:7"))
}
