package syncer

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"tillpoint-pos-api/internal/cache"
	"tillpoint-pos-api/internal/connectivity"
	"tillpoint-pos-api/internal/model"
	"tillpoint-pos-api/internal/queue"
	"tillpoint-pos-api/internal/repository"
)

// Common syncer errors
type SyncError string

func (e SyncError) Error() string { return string(e) }

const (
	// ErrDrainInFlight indicates another drain is already running.
	ErrDrainInFlight SyncError = "drain already in flight"
)

// Drain trigger sources recorded in the audit log.
const (
	TriggerReconnect = "reconnect"
	TriggerManual    = "manual"
	TriggerStartup   = "startup"
)

// Config holds retry and timeout settings for the engine.
type Config struct {
	// MaxAttempts is the number of tries per action before the drain aborts.
	MaxAttempts int
	// BaseBackoff is the delay after the first failed attempt; it doubles
	// on each subsequent attempt.
	BaseBackoff time.Duration
	// ActionTimeout bounds each remote apply attempt.
	ActionTimeout time.Duration
}

// DefaultConfig returns the default retry settings.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		BaseBackoff:   250 * time.Millisecond,
		ActionTimeout: 10 * time.Second,
	}
}

// Engine drains the pending-action queue against the remote store when the
// till is online, then refreshes the local snapshots. Applies run in strict
// queue order: later Sale actions carry NewStock values computed assuming
// all prior queued decrements already happened.
//
// A failed apply aborts the drain and leaves everything enqueued; actions
// that already landed are marked applied and skipped on the next attempt,
// so a retry never re-submits a committed write.
type Engine struct {
	repo    repository.POSRepository
	queue   *queue.ActionQueue
	cache   *cache.SnapshotCache
	monitor *connectivity.Monitor
	syncLog repository.SyncLogRepository // optional
	cfg     Config

	inFlight atomic.Bool
}

// NewEngine creates a sync engine. syncLog may be nil.
func NewEngine(
	repo repository.POSRepository,
	q *queue.ActionQueue,
	snapshots *cache.SnapshotCache,
	monitor *connectivity.Monitor,
	syncLog repository.SyncLogRepository,
	cfg Config,
) *Engine {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = DefaultConfig().BaseBackoff
	}
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = DefaultConfig().ActionTimeout
	}
	return &Engine{
		repo:    repo,
		queue:   q,
		cache:   snapshots,
		monitor: monitor,
		syncLog: syncLog,
		cfg:     cfg,
	}
}

// InFlight reports whether a drain is currently running.
func (e *Engine) InFlight() bool {
	return e.inFlight.Load()
}

// Drain applies every queued action against the remote store in FIFO order,
// removes the drained actions on full success and refreshes the local
// snapshots. Returns the number of actions applied in this invocation.
//
// Offline or with an empty queue it is a no-op: no remote call, nil error.
// A concurrent invocation returns ErrDrainInFlight.
func (e *Engine) Drain(ctx context.Context, trigger string) (int, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return 0, ErrDrainInFlight
	}
	defer e.inFlight.Store(false)

	if !e.monitor.IsOnline() {
		return 0, nil
	}

	actions := e.queue.Snapshot()
	if len(actions) == 0 {
		return 0, nil
	}

	startedAt := time.Now()
	log.Printf("[SyncEngine] Draining %d actions (trigger: %s)", len(actions), trigger)

	applied := 0
	for _, action := range actions {
		if action.Status == model.ActionStatusApplied {
			log.Printf("[SyncEngine] Skipping %s (already applied)", action.ID)
			continue
		}

		if err := e.applyWithRetry(ctx, action); err != nil {
			err = fmt.Errorf("failed to apply action %s: %w", action.ID, err)
			log.Printf("[SyncEngine] Drain aborted after %d applies: %v", applied, err)
			e.recordDrain(trigger, applied, startedAt, err)
			return applied, err
		}

		if err := e.queue.MarkApplied(ctx, action.ID); err != nil {
			// The remote write landed but the applied flag did not persist.
			// Abort rather than risk clearing; idempotent applies make the
			// eventual retry safe.
			err = fmt.Errorf("failed to mark action %s applied: %w", action.ID, err)
			log.Printf("[SyncEngine] %v", err)
			e.recordDrain(trigger, applied, startedAt, err)
			return applied, err
		}
		applied++
	}

	// Remove only what this drain applied. Actions appended while the
	// drain was running stay enqueued for the next trigger.
	drained := make([]string, len(actions))
	for i, action := range actions {
		drained[i] = action.ID
	}
	if err := e.queue.Remove(ctx, drained); err != nil {
		// Applied statuses are persisted; the next drain will skip
		// everything drained here and remove again.
		log.Printf("[SyncEngine] Failed to clear drained actions: %v", err)
	}

	e.RefreshSnapshots(ctx)
	e.recordDrain(trigger, applied, startedAt, nil)

	log.Printf("[SyncEngine] Drain complete: %d actions applied in %v",
		applied, time.Since(startedAt).Round(time.Millisecond))
	return applied, nil
}

// applyWithRetry applies one action with bounded retries and exponential
// backoff, each attempt bounded by the configured timeout.
func (e *Engine) applyWithRetry(ctx context.Context, action model.PendingAction) error {
	var lastErr error
	backoff := e.cfg.BaseBackoff

	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.ActionTimeout)
		lastErr = e.applyOne(attemptCtx, action)
		cancel()

		if lastErr == nil {
			return nil
		}
		if attempt == e.cfg.MaxAttempts {
			break
		}

		log.Printf("[SyncEngine] Attempt %d/%d for %s failed: %v (retrying in %v)",
			attempt, e.cfg.MaxAttempts, action.ID, lastErr, backoff)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
	return lastErr
}

// applyOne dispatches a single action against the remote store.
func (e *Engine) applyOne(ctx context.Context, action model.PendingAction) error {
	switch action.Kind {
	case model.ActionSale:
		p := action.Sale
		if p == nil {
			return fmt.Errorf("sale action %s has no payload", action.ID)
		}
		sale := model.Sale{
			ID:            p.SaleID,
			ProductID:     p.ProductID,
			CustomerID:    p.CustomerID,
			Quantity:      p.Quantity,
			UnitPrice:     p.UnitPrice,
			TotalAmount:   p.TotalAmount,
			PaymentMethod: p.PaymentMethod,
			Status:        p.Status,
			CreatedAt:     action.EnqueuedAt,
		}
		if err := e.repo.InsertSale(ctx, sale); err != nil {
			return err
		}
		return e.repo.SetStock(ctx, p.ProductID, p.NewStock)

	case model.ActionCustomerBalance:
		p := action.CustomerBalance
		if p == nil {
			return fmt.Errorf("customer balance action %s has no payload", action.ID)
		}
		return e.repo.AddLifetimeValue(ctx, p.CustomerID, p.CustomerName, p.AmountToAdd)

	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
}

// RefreshSnapshots overwrites the local snapshots from the remote store.
// Errors are logged and swallowed; a failed refresh leaves the previous
// snapshot in place and must not make the till unusable.
func (e *Engine) RefreshSnapshots(ctx context.Context) {
	if products, err := e.repo.ListProducts(ctx); err != nil {
		log.Printf("[SyncEngine] Failed to refresh products snapshot: %v", err)
	} else if err := e.cache.PutProducts(ctx, products); err != nil {
		log.Printf("[SyncEngine] Failed to store products snapshot: %v", err)
	}

	if customers, err := e.repo.ListCustomers(ctx); err != nil {
		log.Printf("[SyncEngine] Failed to refresh customers snapshot: %v", err)
	} else if err := e.cache.PutCustomers(ctx, customers); err != nil {
		log.Printf("[SyncEngine] Failed to store customers snapshot: %v", err)
	}

	if sales, err := e.repo.ListSales(ctx); err != nil {
		log.Printf("[SyncEngine] Failed to refresh sales snapshot: %v", err)
	} else if err := e.cache.PutSales(ctx, sales); err != nil {
		log.Printf("[SyncEngine] Failed to store sales snapshot: %v", err)
	}
}

// recordDrain writes an audit row; failures are logged and swallowed.
func (e *Engine) recordDrain(trigger string, applied int, startedAt time.Time, drainErr error) {
	if e.syncLog == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	record := model.NewDrainRecord(trigger, applied, startedAt, drainErr)
	if err := e.syncLog.RecordDrain(ctx, record); err != nil {
		log.Printf("[SyncEngine] Failed to record drain outcome: %v", err)
	}
}
