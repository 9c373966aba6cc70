package store

import "context"

// KeyValueStore is the durable local storage boundary. The pending-action
// queue and the snapshot cache persist through it; a nil error from Set
// means the value is durably stored.
type KeyValueStore interface {
	// Get retrieves a value by key. Returns ErrKeyNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set durably stores a value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a value by key. Returns ErrKeyNotFound if absent.
	Delete(ctx context.Context, key string) error

	// Close releases any underlying resources.
	Close() error
}

// Common store errors
type StoreError string

func (e StoreError) Error() string { return string(e) }

const (
	// ErrKeyNotFound indicates the key has never been stored.
	ErrKeyNotFound StoreError = "key not found"
)
