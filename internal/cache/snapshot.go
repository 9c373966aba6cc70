package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"tillpoint-pos-api/internal/model"
	"tillpoint-pos-api/internal/store"
)

// Resource names whose snapshots are cached locally.
const (
	ResourceProducts  = "products"
	ResourceCustomers = "customers"
	ResourceSales     = "sales"
)

// Common cache errors
type CacheError string

func (e CacheError) Error() string { return string(e) }

const (
	// ErrNoSnapshot indicates the resource has never been populated.
	ErrNoSnapshot CacheError = "no cached snapshot"
)

// SnapshotCache keeps the last-known server snapshot per resource, backed
// by the durable local store. Snapshots are overwritten wholesale on every
// successful remote read and on every offline checkout; they are never
// merged field-by-field and never expire. Staleness is bounded only by how
// long the client stays offline.
type SnapshotCache struct {
	kv store.KeyValueStore
}

// NewSnapshotCache creates a snapshot cache over the given store.
func NewSnapshotCache(kv store.KeyValueStore) *SnapshotCache {
	return &SnapshotCache{kv: kv}
}

func snapshotKey(resource string) string {
	return "cache_" + resource
}

// GetSnapshot decodes the last snapshot of resource into v.
// Returns ErrNoSnapshot if the resource was never populated.
func (c *SnapshotCache) GetSnapshot(ctx context.Context, resource string, v any) error {
	data, err := c.kv.Get(ctx, snapshotKey(resource))
	if err == store.ErrKeyNotFound {
		return ErrNoSnapshot
	}
	if err != nil {
		return fmt.Errorf("failed to read %s snapshot: %w", resource, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s snapshot: %w", resource, err)
	}
	return nil
}

// PutSnapshot overwrites the snapshot of resource wholesale.
func (c *SnapshotCache) PutSnapshot(ctx context.Context, resource string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s snapshot: %w", resource, err)
	}
	if err := c.kv.Set(ctx, snapshotKey(resource), data); err != nil {
		return fmt.Errorf("failed to store %s snapshot: %w", resource, err)
	}
	return nil
}

// Raw returns the undecoded snapshot bytes for resource.
func (c *SnapshotCache) Raw(ctx context.Context, resource string) (json.RawMessage, error) {
	data, err := c.kv.Get(ctx, snapshotKey(resource))
	if err == store.ErrKeyNotFound {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s snapshot: %w", resource, err)
	}
	return json.RawMessage(data), nil
}

// Products returns the cached product snapshot.
func (c *SnapshotCache) Products(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.GetSnapshot(ctx, ResourceProducts, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// PutProducts overwrites the cached product snapshot.
func (c *SnapshotCache) PutProducts(ctx context.Context, products []model.Product) error {
	return c.PutSnapshot(ctx, ResourceProducts, products)
}

// Customers returns the cached customer snapshot.
func (c *SnapshotCache) Customers(ctx context.Context) ([]model.Customer, error) {
	var customers []model.Customer
	if err := c.GetSnapshot(ctx, ResourceCustomers, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// PutCustomers overwrites the cached customer snapshot.
func (c *SnapshotCache) PutCustomers(ctx context.Context, customers []model.Customer) error {
	return c.PutSnapshot(ctx, ResourceCustomers, customers)
}

// PutSales overwrites the cached sales snapshot.
func (c *SnapshotCache) PutSales(ctx context.Context, sales []model.Sale) error {
	return c.PutSnapshot(ctx, ResourceSales, sales)
}

// KnownResource reports whether name is a cacheable resource.
func KnownResource(name string) bool {
	switch name {
	case ResourceProducts, ResourceCustomers, ResourceSales:
		return true
	}
	return false
}
