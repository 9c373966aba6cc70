package model

import "time"

// Product represents a catalogue item in the remote store.
type Product struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// Customer represents a CRM record with a lifetime-value aggregate.
type Customer struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	LifetimeValue float64 `json:"lifetime_value"`
}

// SaleStatusCompleted is the status fixed on every sale at checkout time.
const SaleStatusCompleted = "completed"

// Sale represents a completed point-of-sale transaction line.
type Sale struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	CustomerID    string    `json:"customer_id,omitempty"`
	Quantity      int       `json:"quantity"`
	UnitPrice     float64   `json:"unit_price"`
	TotalAmount   float64   `json:"total_amount"`
	PaymentMethod string    `json:"payment_method"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// CartLine is one entry of a transient checkout cart.
// StockAtAddTime is the product stock captured when the line was added;
// quantity edits are clamped against it, never against live server truth.
type CartLine struct {
	ProductID      string  `json:"product_id"`
	UnitPrice      float64 `json:"unit_price"`
	Quantity       int     `json:"quantity"`
	StockAtAddTime int     `json:"stock_at_add_time"`
}

// DrainRecord is one row of the local sync audit log.
type DrainRecord struct {
	ID         int64     `json:"id"`
	Trigger    string    `json:"trigger"`
	Applied    int       `json:"applied"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

// Drain outcomes recorded in the audit log.
const (
	DrainOutcomeSuccess = "success"
	DrainOutcomeFailed  = "failed"
)

// NewDrainRecord builds an audit row for a finished drain attempt.
func NewDrainRecord(trigger string, applied int, startedAt time.Time, err error) DrainRecord {
	rec := DrainRecord{
		Trigger:    trigger,
		Applied:    applied,
		Outcome:    DrainOutcomeSuccess,
		StartedAt:  startedAt,
		DurationMS: time.Since(startedAt).Milliseconds(),
	}
	if err != nil {
		rec.Outcome = DrainOutcomeFailed
		rec.Error = err.Error()
	}
	return rec
}
