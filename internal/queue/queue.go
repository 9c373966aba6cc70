package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"tillpoint-pos-api/internal/model"
	"tillpoint-pos-api/internal/store"
)

// storageKey is the fixed key the serialized action list lives under.
const storageKey = "pendingActions"

// ActionQueue is the ordered, durable list of not-yet-applied mutations.
// The in-memory list and the persisted list are updated inside the same
// critical section, so they are always consistent when a call returns.
// Order is strictly FIFO; no reordering, deduplication or coalescing is
// performed - two sales of the same product remain two separate actions.
type ActionQueue struct {
	kv store.KeyValueStore

	mu      sync.Mutex
	actions []model.PendingAction
}

// NewActionQueue creates a queue persisting through the given store.
func NewActionQueue(kv store.KeyValueStore) *ActionQueue {
	return &ActionQueue{kv: kv}
}

// Load restores the persisted queue, typically once at startup.
func (q *ActionQueue) Load(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	data, err := q.kv.Get(ctx, storageKey)
	if err == store.ErrKeyNotFound {
		q.actions = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load pending actions: %w", err)
	}

	var actions []model.PendingAction
	if err := json.Unmarshal(data, &actions); err != nil {
		return fmt.Errorf("failed to decode pending actions: %w", err)
	}
	q.actions = actions

	if len(actions) > 0 {
		log.Printf("[ActionQueue] Restored %d pending actions", len(actions))
	}
	return nil
}

// Append pushes an action and persists the full list before returning.
// If persistence fails the in-memory push is rolled back and the error is
// returned; an append never silently reports success.
func (q *ActionQueue) Append(ctx context.Context, action model.PendingAction) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.actions = append(q.actions, action)
	if err := q.persistLocked(ctx); err != nil {
		q.actions = q.actions[:len(q.actions)-1]
		return fmt.Errorf("failed to persist action %s: %w", action.ID, err)
	}
	return nil
}

// Snapshot returns a copy of the current list without removing anything.
// The caller (the sync engine) is responsible for marking and clearing.
func (q *ActionQueue) Snapshot() []model.PendingAction {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]model.PendingAction, len(q.actions))
	copy(out, q.actions)
	return out
}

// MarkApplied flips the action's status to applied and persists, so a later
// drain attempt will not re-submit a write that already landed remotely.
func (q *ActionQueue) MarkApplied(ctx context.Context, actionID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.actions {
		if q.actions[i].ID != actionID {
			continue
		}
		previous := q.actions[i].Status
		q.actions[i].Status = model.ActionStatusApplied
		if err := q.persistLocked(ctx); err != nil {
			q.actions[i].Status = previous
			return fmt.Errorf("failed to persist applied status for %s: %w", actionID, err)
		}
		return nil
	}
	return fmt.Errorf("action %s not found in queue", actionID)
}

// Remove deletes the actions with the given IDs and persists the remainder.
// IDs not present are ignored. The sync engine uses this to clear exactly
// what it drained, so an action appended mid-drain survives; checkout uses
// it to roll back a partially enqueued checkout.
func (q *ActionQueue) Remove(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	previous := q.actions
	remaining := make([]model.PendingAction, 0, len(q.actions))
	for _, action := range q.actions {
		if _, ok := drop[action.ID]; !ok {
			remaining = append(remaining, action)
		}
	}
	if len(remaining) == len(previous) {
		return nil
	}

	if len(remaining) == 0 {
		q.actions = nil
		if err := q.kv.Delete(ctx, storageKey); err != nil && err != store.ErrKeyNotFound {
			q.actions = previous
			return fmt.Errorf("failed to remove actions: %w", err)
		}
		return nil
	}

	q.actions = remaining
	if err := q.persistLocked(ctx); err != nil {
		q.actions = previous
		return fmt.Errorf("failed to remove actions: %w", err)
	}
	return nil
}

// Clear empties the list and deletes the storage key.
func (q *ActionQueue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.actions = nil
	if err := q.kv.Delete(ctx, storageKey); err != nil && err != store.ErrKeyNotFound {
		return fmt.Errorf("failed to clear pending actions: %w", err)
	}
	return nil
}

// Len returns the total number of queued actions, applied ones included.
func (q *ActionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// PendingCount returns the number of actions not yet applied remotely.
func (q *ActionQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	count := 0
	for i := range q.actions {
		if q.actions[i].Status == model.ActionStatusPending {
			count++
		}
	}
	return count
}

// persistLocked serializes the full list under storageKey. Callers must
// hold mu.
func (q *ActionQueue) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(q.actions)
	if err != nil {
		return fmt.Errorf("failed to encode pending actions: %w", err)
	}
	return q.kv.Set(ctx, storageKey, data)
}
