package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint-pos-api/internal/model"
	"tillpoint-pos-api/internal/store"
)

// failingStore wraps a working store and fails writes on demand.
type failingStore struct {
	store.KeyValueStore
	failSet    bool
	failDelete bool
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return store.StoreError("disk full")
	}
	return f.KeyValueStore.Set(ctx, key, value)
}

func (f *failingStore) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return store.StoreError("disk full")
	}
	return f.KeyValueStore.Delete(ctx, key)
}

func saleAction(id string) model.PendingAction {
	return model.PendingAction{
		ID:   id,
		Kind: model.ActionSale,
		Sale: &model.SalePayload{
			SaleID:    "sale-" + id,
			ProductID: "prod-1",
			Quantity:  1,
			NewStock:  9,
		},
		Status:     model.ActionStatusPending,
		EnqueuedAt: time.Now().UTC(),
	}
}

func TestActionQueue_AppendPreservesOrder(t *testing.T) {
	q := NewActionQueue(store.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, q.Append(ctx, saleAction("a")))
	require.NoError(t, q.Append(ctx, saleAction("b")))
	require.NoError(t, q.Append(ctx, saleAction("c")))

	snapshot := q.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "a", snapshot[0].ID)
	assert.Equal(t, "b", snapshot[1].ID)
	assert.Equal(t, "c", snapshot[2].ID)
}

func TestActionQueue_LoadRestoresPersistedActions(t *testing.T) {
	kv := store.NewMemoryStore()
	ctx := context.Background()

	q := NewActionQueue(kv)
	require.NoError(t, q.Append(ctx, saleAction("a")))
	require.NoError(t, q.Append(ctx, saleAction("b")))

	// A fresh queue over the same store sees the same actions, in order.
	restored := NewActionQueue(kv)
	require.NoError(t, restored.Load(ctx))

	snapshot := restored.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "a", snapshot[0].ID)
	assert.Equal(t, "b", snapshot[1].ID)
	assert.Equal(t, model.ActionStatusPending, snapshot[0].Status)
}

func TestActionQueue_LoadEmptyStore(t *testing.T) {
	q := NewActionQueue(store.NewMemoryStore())
	require.NoError(t, q.Load(context.Background()))
	assert.Zero(t, q.Len())
}

func TestActionQueue_AppendRollsBackOnPersistFailure(t *testing.T) {
	kv := &failingStore{KeyValueStore: store.NewMemoryStore()}
	q := NewActionQueue(kv)
	ctx := context.Background()

	require.NoError(t, q.Append(ctx, saleAction("a")))

	kv.failSet = true
	err := q.Append(ctx, saleAction("b"))
	require.Error(t, err)

	// The failed append must not be visible in memory.
	snapshot := q.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "a", snapshot[0].ID)
}

func TestActionQueue_MarkApplied(t *testing.T) {
	kv := store.NewMemoryStore()
	q := NewActionQueue(kv)
	ctx := context.Background()

	require.NoError(t, q.Append(ctx, saleAction("a")))
	require.NoError(t, q.Append(ctx, saleAction("b")))

	require.NoError(t, q.MarkApplied(ctx, "a"))

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 1, q.PendingCount())

	// The applied status survives a restart.
	restored := NewActionQueue(kv)
	require.NoError(t, restored.Load(ctx))

	snapshot := restored.Snapshot()
	assert.Equal(t, model.ActionStatusApplied, snapshot[0].Status)
	assert.Equal(t, model.ActionStatusPending, snapshot[1].Status)
}

func TestActionQueue_MarkAppliedUnknownID(t *testing.T) {
	q := NewActionQueue(store.NewMemoryStore())
	err := q.MarkApplied(context.Background(), "ghost")
	assert.Error(t, err)
}

func TestActionQueue_MarkAppliedRevertsOnPersistFailure(t *testing.T) {
	kv := &failingStore{KeyValueStore: store.NewMemoryStore()}
	q := NewActionQueue(kv)
	ctx := context.Background()

	require.NoError(t, q.Append(ctx, saleAction("a")))

	kv.failSet = true
	require.Error(t, q.MarkApplied(ctx, "a"))

	assert.Equal(t, 1, q.PendingCount())
}

func TestActionQueue_RemoveByID(t *testing.T) {
	kv := store.NewMemoryStore()
	q := NewActionQueue(kv)
	ctx := context.Background()

	require.NoError(t, q.Append(ctx, saleAction("a")))
	require.NoError(t, q.Append(ctx, saleAction("b")))
	require.NoError(t, q.Append(ctx, saleAction("c")))

	require.NoError(t, q.Remove(ctx, []string{"a", "c", "ghost"}))

	snapshot := q.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "b", snapshot[0].ID)

	// The removal is durable.
	restored := NewActionQueue(kv)
	require.NoError(t, restored.Load(ctx))
	require.Len(t, restored.Snapshot(), 1)
	assert.Equal(t, "b", restored.Snapshot()[0].ID)
}

func TestActionQueue_RemoveLastActionDeletesKey(t *testing.T) {
	kv := store.NewMemoryStore()
	q := NewActionQueue(kv)
	ctx := context.Background()

	require.NoError(t, q.Append(ctx, saleAction("a")))
	require.NoError(t, q.Remove(ctx, []string{"a"}))
	assert.Zero(t, q.Len())

	_, err := kv.Get(ctx, storageKey)
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}

func TestActionQueue_RemoveUnknownIDsIsNoOp(t *testing.T) {
	kv := &failingStore{KeyValueStore: store.NewMemoryStore()}
	q := NewActionQueue(kv)
	ctx := context.Background()

	require.NoError(t, q.Append(ctx, saleAction("a")))

	// Nothing matches, so nothing is persisted even with a broken store.
	kv.failSet = true
	kv.failDelete = true
	require.NoError(t, q.Remove(ctx, []string{"ghost"}))
	require.NoError(t, q.Remove(ctx, nil))
	assert.Equal(t, 1, q.Len())
}

func TestActionQueue_RemoveRollsBackOnPersistFailure(t *testing.T) {
	kv := &failingStore{KeyValueStore: store.NewMemoryStore()}
	q := NewActionQueue(kv)
	ctx := context.Background()

	require.NoError(t, q.Append(ctx, saleAction("a")))
	require.NoError(t, q.Append(ctx, saleAction("b")))

	kv.failSet = true
	require.Error(t, q.Remove(ctx, []string{"a"}))
	assert.Equal(t, 2, q.Len())
}

func TestActionQueue_Clear(t *testing.T) {
	kv := store.NewMemoryStore()
	q := NewActionQueue(kv)
	ctx := context.Background()

	require.NoError(t, q.Append(ctx, saleAction("a")))
	require.NoError(t, q.Clear(ctx))

	assert.Zero(t, q.Len())

	restored := NewActionQueue(kv)
	require.NoError(t, restored.Load(ctx))
	assert.Zero(t, restored.Len())
}

func TestActionQueue_ClearWhenNothingPersisted(t *testing.T) {
	q := NewActionQueue(store.NewMemoryStore())
	assert.NoError(t, q.Clear(context.Background()))
}

func TestActionQueue_SnapshotIsACopy(t *testing.T) {
	q := NewActionQueue(store.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, q.Append(ctx, saleAction("a")))

	snapshot := q.Snapshot()
	snapshot[0].Status = model.ActionStatusApplied

	assert.Equal(t, 1, q.PendingCount())
}
