package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint-pos-api/internal/model"
)

func newTestRepo(t *testing.T) *SQLitePOSRepository {
	t.Helper()
	repo, err := NewSQLitePOSRepository(filepath.Join(t.TempDir(), "pos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func insertTestProduct(t *testing.T, repo *SQLitePOSRepository, p model.Product) {
	t.Helper()
	_, err := repo.db.Exec(
		`INSERT INTO products (id, name, price, stock) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.Price, p.Stock)
	require.NoError(t, err)
}

func TestSQLitePOSRepository_Products(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	insertTestProduct(t, repo, model.Product{ID: "p1", Name: "Espresso", Price: 2.50, Stock: 40})

	got, err := repo.GetProduct(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Espresso", got.Name)
	assert.Equal(t, 40, got.Stock)

	missing, err := repo.GetProduct(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)

	products, err := repo.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestSQLitePOSRepository_SetAndAdjustStock(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	insertTestProduct(t, repo, model.Product{ID: "p1", Name: "Espresso", Price: 2.50, Stock: 40})

	require.NoError(t, repo.SetStock(ctx, "p1", 35))
	got, err := repo.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 35, got.Stock)

	require.NoError(t, repo.AdjustStock(ctx, "p1", -5))
	got, err = repo.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 30, got.Stock)

	assert.Error(t, repo.SetStock(ctx, "ghost", 1))
	assert.Error(t, repo.AdjustStock(ctx, "ghost", 1))
}

func TestSQLitePOSRepository_FindCustomerByNameCaseInsensitive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertCustomer(ctx, model.Customer{ID: "c1", Name: "Dana", LifetimeValue: 10}))

	for _, name := range []string{"Dana", "dana", "DANA"} {
		got, err := repo.FindCustomerByName(ctx, name)
		require.NoError(t, err)
		require.NotNil(t, got, "lookup %q", name)
		assert.Equal(t, "c1", got.ID)
	}

	missing, err := repo.FindCustomerByName(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLitePOSRepository_AddLifetimeValueUpserts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Missing customer materializes with the given name and amount.
	require.NoError(t, repo.AddLifetimeValue(ctx, "c1", "Dana", 25))

	got, err := repo.FindCustomerByName(ctx, "Dana")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 25, got.LifetimeValue, 1e-9)

	// Existing customer accumulates.
	require.NoError(t, repo.AddLifetimeValue(ctx, "c1", "Dana", 10))

	got, err = repo.FindCustomerByName(ctx, "Dana")
	require.NoError(t, err)
	assert.InDelta(t, 35, got.LifetimeValue, 1e-9)
}

func TestSQLitePOSRepository_InsertSaleIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sale := model.Sale{
		ID:            "s1",
		ProductID:     "p1",
		Quantity:      2,
		UnitPrice:     2.50,
		TotalAmount:   5.00,
		PaymentMethod: "cash",
		Status:        model.SaleStatusCompleted,
		CreatedAt:     time.Now().UTC(),
	}

	require.NoError(t, repo.InsertSale(ctx, sale))
	require.NoError(t, repo.InsertSale(ctx, sale))

	sales, err := repo.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "s1", sales[0].ID)
	assert.Empty(t, sales[0].CustomerID)
}

func TestSQLitePOSRepository_ListSalesNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, repo.InsertSale(ctx, model.Sale{
			ID:            id,
			ProductID:     "p1",
			CustomerID:    "c1",
			Quantity:      1,
			UnitPrice:     2.50,
			TotalAmount:   2.50,
			PaymentMethod: "cash",
			Status:        model.SaleStatusCompleted,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}))
	}

	sales, err := repo.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 3)
	assert.Equal(t, "s3", sales[0].ID)
	assert.Equal(t, "s1", sales[2].ID)
	assert.Equal(t, "c1", sales[0].CustomerID)
}

func TestSQLitePOSRepository_SeedDemoProducts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SeedDemoProducts(ctx))

	products, err := repo.ListProducts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, products)
	seeded := len(products)

	// Seeding is a no-op once the catalogue has rows.
	require.NoError(t, repo.SeedDemoProducts(ctx))
	products, err = repo.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, seeded)
}

func TestSQLiteSyncLogRepository_RecordAndList(t *testing.T) {
	repo, err := NewSQLiteSyncLogRepository(filepath.Join(t.TempDir(), "synclog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	started := time.Now().UTC()

	require.NoError(t, repo.RecordDrain(ctx, model.DrainRecord{
		Trigger:    "manual",
		Applied:    2,
		Outcome:    model.DrainOutcomeSuccess,
		StartedAt:  started,
		DurationMS: 12,
	}))
	require.NoError(t, repo.RecordDrain(ctx, model.DrainRecord{
		Trigger:    "reconnect",
		Applied:    0,
		Outcome:    model.DrainOutcomeFailed,
		Error:      "remote unavailable",
		StartedAt:  started.Add(time.Minute),
		DurationMS: 30,
	}))

	records, err := repo.RecentDrains(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, "reconnect", records[0].Trigger)
	assert.Equal(t, model.DrainOutcomeFailed, records[0].Outcome)
	assert.Equal(t, "remote unavailable", records[0].Error)
	assert.Equal(t, "manual", records[1].Trigger)
	assert.Equal(t, 2, records[1].Applied)
}

func TestSQLiteSyncLogRepository_Prune(t *testing.T) {
	repo, err := NewSQLiteSyncLogRepository(filepath.Join(t.TempDir(), "synclog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()

	require.NoError(t, repo.RecordDrain(ctx, model.DrainRecord{
		Trigger:   "manual",
		Outcome:   model.DrainOutcomeSuccess,
		StartedAt: time.Now().UTC().Add(-48 * time.Hour),
	}))
	require.NoError(t, repo.RecordDrain(ctx, model.DrainRecord{
		Trigger:   "manual",
		Outcome:   model.DrainOutcomeSuccess,
		StartedAt: time.Now().UTC(),
	}))

	deleted, err := repo.PruneOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	records, err := repo.RecentDrains(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
