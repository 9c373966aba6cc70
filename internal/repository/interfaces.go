package repository

import (
	"context"
	"time"

	"tillpoint-pos-api/internal/model"
)

// ProductRepository defines product data access methods.
type ProductRepository interface {
	// ListProducts returns the full product catalogue.
	ListProducts(ctx context.Context) ([]model.Product, error)

	// GetProduct retrieves a product by ID. Returns nil if absent.
	GetProduct(ctx context.Context, id string) (*model.Product, error)

	// SetStock sets a product's stock to an absolute value (queued replay).
	SetStock(ctx context.Context, productID string, stock int) error

	// AdjustStock changes a product's stock by delta (online checkout).
	AdjustStock(ctx context.Context, productID string, delta int) error
}

// CustomerRepository defines customer data access methods.
type CustomerRepository interface {
	// ListCustomers returns all customer records.
	ListCustomers(ctx context.Context) ([]model.Customer, error)

	// FindCustomerByName performs a case-insensitive name lookup.
	// Returns nil if no customer matches.
	FindCustomerByName(ctx context.Context, name string) (*model.Customer, error)

	// InsertCustomer creates a customer record.
	InsertCustomer(ctx context.Context, customer model.Customer) error

	// AddLifetimeValue increments a customer's lifetime-value aggregate,
	// inserting the record (with the given name) if it does not exist yet.
	AddLifetimeValue(ctx context.Context, customerID, name string, amount float64) error
}

// SaleRepository defines sale data access methods.
type SaleRepository interface {
	// InsertSale records a sale. Inserts are idempotent on the
	// client-generated sale ID: re-applying a sale that already landed is
	// a no-op.
	InsertSale(ctx context.Context, sale model.Sale) error

	// ListSales returns recorded sales, newest first.
	ListSales(ctx context.Context) ([]model.Sale, error)
}

// POSRepository is the remote store boundary: an opaque resource accessed
// through CRUD-style calls, with no transactional guarantees across them.
type POSRepository interface {
	ProductRepository
	CustomerRepository
	SaleRepository

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close closes the repository connection.
	Close() error
}

// SyncLogRepository records drain attempts for diagnostics.
type SyncLogRepository interface {
	// RecordDrain appends one drain outcome to the audit log.
	RecordDrain(ctx context.Context, record model.DrainRecord) error

	// RecentDrains returns the most recent drain records, newest first.
	RecentDrains(ctx context.Context, limit int) ([]model.DrainRecord, error)

	// PruneOlderThan deletes audit rows older than the threshold.
	PruneOlderThan(ctx context.Context, threshold time.Duration) (int64, error)

	// Close closes the repository connection.
	Close() error
}
