package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint-pos-api/internal/model"
	"tillpoint-pos-api/internal/store"
)

func TestSnapshotCache_MissingSnapshot(t *testing.T) {
	c := NewSnapshotCache(store.NewMemoryStore())

	_, err := c.Products(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSnapshotCache_PutAndGetProducts(t *testing.T) {
	c := NewSnapshotCache(store.NewMemoryStore())
	ctx := context.Background()

	products := []model.Product{
		{ID: "p1", Name: "Espresso", Price: 3.50, Stock: 40},
		{ID: "p2", Name: "Latte", Price: 4.75, Stock: 25},
	}
	require.NoError(t, c.PutProducts(ctx, products))

	got, err := c.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, products, got)
}

func TestSnapshotCache_OverwriteIsWholesale(t *testing.T) {
	c := NewSnapshotCache(store.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, c.PutProducts(ctx, []model.Product{
		{ID: "p1", Name: "Espresso", Price: 3.50, Stock: 40},
		{ID: "p2", Name: "Latte", Price: 4.75, Stock: 25},
	}))

	// A second put fully replaces the first; p2 must be gone.
	require.NoError(t, c.PutProducts(ctx, []model.Product{
		{ID: "p1", Name: "Espresso", Price: 3.50, Stock: 39},
	}))

	got, err := c.Products(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 39, got[0].Stock)
}

func TestSnapshotCache_CustomersRoundTrip(t *testing.T) {
	c := NewSnapshotCache(store.NewMemoryStore())
	ctx := context.Background()

	customers := []model.Customer{
		{ID: "c1", Name: "Dana", LifetimeValue: 120.50},
	}
	require.NoError(t, c.PutCustomers(ctx, customers))

	got, err := c.Customers(ctx)
	require.NoError(t, err)
	assert.Equal(t, customers, got)
}

func TestSnapshotCache_ResourcesAreIndependent(t *testing.T) {
	c := NewSnapshotCache(store.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, c.PutProducts(ctx, []model.Product{{ID: "p1"}}))

	_, err := c.Customers(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSnapshotCache_Raw(t *testing.T) {
	c := NewSnapshotCache(store.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, c.PutSales(ctx, []model.Sale{}))

	raw, err := c.Raw(ctx, ResourceSales)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))

	_, err = c.Raw(ctx, ResourceProducts)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestKnownResource(t *testing.T) {
	assert.True(t, KnownResource(ResourceProducts))
	assert.True(t, KnownResource(ResourceCustomers))
	assert.True(t, KnownResource(ResourceSales))
	assert.False(t, KnownResource("orders"))
	assert.False(t, KnownResource(""))
}
