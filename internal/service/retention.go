package service

import (
	"context"
	"log"
	"sync"
	"time"

	"tillpoint-pos-api/internal/repository"
)

// RetentionConfig holds configuration for the audit log pruner.
type RetentionConfig struct {
	// MaxAge is the age beyond which drain audit rows are deleted.
	MaxAge time.Duration

	// PruneInterval is how often the pruner runs.
	PruneInterval time.Duration
}

// DefaultRetentionConfig returns default retention settings.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		MaxAge:        30 * 24 * time.Hour,
		PruneInterval: 24 * time.Hour,
	}
}

// RetentionScheduler periodically prunes old rows from the sync audit log
// so the local database does not grow without bound on a long-lived till.
type RetentionScheduler struct {
	syncLog  repository.SyncLogRepository
	config   RetentionConfig
	ticker   *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
	running  bool
}

// NewRetentionScheduler creates a retention scheduler.
func NewRetentionScheduler(syncLog repository.SyncLogRepository, config RetentionConfig) *RetentionScheduler {
	if config.MaxAge == 0 {
		config.MaxAge = DefaultRetentionConfig().MaxAge
	}
	if config.PruneInterval == 0 {
		config.PruneInterval = DefaultRetentionConfig().PruneInterval
	}

	return &RetentionScheduler{
		syncLog: syncLog,
		config:  config,
		stopCh:  make(chan struct{}),
	}
}

// Start begins the pruning loop.
func (s *RetentionScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ticker = time.NewTicker(s.config.PruneInterval)
	s.mu.Unlock()

	log.Printf("[RetentionScheduler] Started - Interval: %v, MaxAge: %v",
		s.config.PruneInterval, s.config.MaxAge)

	go s.run()
}

func (s *RetentionScheduler) run() {
	for {
		select {
		case <-s.ticker.C:
			s.prune()
		case <-s.stopCh:
			log.Printf("[RetentionScheduler] Stopped")
			return
		}
	}
}

func (s *RetentionScheduler) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := s.syncLog.PruneOlderThan(ctx, s.config.MaxAge)
	if err != nil {
		log.Printf("[RetentionScheduler] Error during prune: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[RetentionScheduler] Pruned %d audit rows", deleted)
	}
}

// Stop stops the scheduler.
func (s *RetentionScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.running = false
	})
}
