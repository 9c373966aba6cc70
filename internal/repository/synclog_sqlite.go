package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"tillpoint-pos-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteSyncLogRepository records drain attempts in a local SQLite file.
// The audit log is local-only diagnostics; it lives next to the till, not
// in the remote store, so it stays writable while offline.
type SQLiteSyncLogRepository struct {
	db *sql.DB
}

// NewSQLiteSyncLogRepository opens (or creates) the sync audit log.
func NewSQLiteSyncLogRepository(dbPath string) (*SQLiteSyncLogRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sync log: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	query := `
	CREATE TABLE IF NOT EXISTS sync_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trigger_source TEXT NOT NULL,
		applied INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		error TEXT,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sync_log_started_at ON sync_log(started_at);
	`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create sync_log table: %w", err)
	}

	log.Printf("[SQLiteSyncLogRepository] Initialized with database: %s", dbPath)
	return &SQLiteSyncLogRepository{db: db}, nil
}

// RecordDrain appends one drain outcome to the audit log.
func (r *SQLiteSyncLogRepository) RecordDrain(ctx context.Context, record model.DrainRecord) error {
	var errText sql.NullString
	if record.Error != "" {
		errText = sql.NullString{String: record.Error, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_log (trigger_source, applied, outcome, error, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.Trigger, record.Applied, record.Outcome, errText, record.StartedAt, record.DurationMS)
	if err != nil {
		return fmt.Errorf("failed to record drain: %w", err)
	}
	return nil
}

// RecentDrains returns the most recent drain records, newest first.
func (r *SQLiteSyncLogRepository) RecentDrains(ctx context.Context, limit int) ([]model.DrainRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, trigger_source, applied, outcome, error, started_at, duration_ms
		FROM sync_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync log: %w", err)
	}
	defer rows.Close()

	records := []model.DrainRecord{}
	for rows.Next() {
		var rec model.DrainRecord
		var errText sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Trigger, &rec.Applied, &rec.Outcome,
			&errText, &rec.StartedAt, &rec.DurationMS); err != nil {
			return nil, fmt.Errorf("failed to scan sync log row: %w", err)
		}
		rec.Error = errText.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// PruneOlderThan deletes audit rows older than the threshold.
func (r *SQLiteSyncLogRepository) PruneOlderThan(ctx context.Context, threshold time.Duration) (int64, error) {
	cutoff := time.Now().Add(-threshold)

	result, err := r.db.ExecContext(ctx, `DELETE FROM sync_log WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune sync log: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		log.Printf("[SQLiteSyncLogRepository] Pruned %d audit rows (threshold: %v)", deleted, threshold)
	}
	return deleted, nil
}

// Close closes the database connection.
func (r *SQLiteSyncLogRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteSyncLogRepository implements SyncLogRepository
var _ SyncLogRepository = (*SQLiteSyncLogRepository)(nil)
