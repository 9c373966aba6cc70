package model

import "time"

// ActionKind discriminates the payload of a PendingAction.
type ActionKind string

const (
	// ActionSale records a completed sale plus its stock decrement.
	ActionSale ActionKind = "sale"
	// ActionCustomerBalance records a lifetime-value increment for a customer.
	ActionCustomerBalance ActionKind = "customer_balance_update"
)

// ActionStatus tracks per-action commit state across drain attempts, so a
// drain that fails partway does not re-submit writes that already landed.
type ActionStatus string

const (
	ActionStatusPending ActionStatus = "pending"
	ActionStatusApplied ActionStatus = "applied"
)

// SalePayload carries everything needed to replay an offline sale remotely.
// NewStock is the product's stock after this sale, precomputed client-side
// against the cached baseline; replay order must match enqueue order.
type SalePayload struct {
	SaleID        string  `json:"sale_id"`
	ProductID     string  `json:"product_id"`
	CustomerID    string  `json:"customer_id,omitempty"`
	Quantity      int     `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	TotalAmount   float64 `json:"total_amount"`
	PaymentMethod string  `json:"payment_method"`
	Status        string  `json:"status"`
	NewStock      int     `json:"new_stock"`
}

// CustomerBalancePayload carries a lifetime-value delta. CustomerName is
// included so the remote apply can upsert customers that were created while
// offline and do not exist remotely yet.
type CustomerBalancePayload struct {
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	AmountToAdd  float64 `json:"amount_to_add"`
}

// PendingAction is a durable record of a deferred remote mutation. Actions
// are immutable once enqueued; Status is the one bookkeeping field the sync
// engine flips when an apply lands. ID doubles as the idempotency key.
type PendingAction struct {
	ID              string                  `json:"id"`
	Kind            ActionKind              `json:"kind"`
	Sale            *SalePayload            `json:"sale,omitempty"`
	CustomerBalance *CustomerBalancePayload `json:"customer_balance,omitempty"`
	Status          ActionStatus            `json:"status"`
	EnqueuedAt      time.Time               `json:"enqueued_at"`
}
