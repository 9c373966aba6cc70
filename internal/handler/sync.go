package handler

import (
	"errors"
	"net/http"
	"time"

	"tillpoint-pos-api/internal/connectivity"
	"tillpoint-pos-api/internal/model"
	"tillpoint-pos-api/internal/queue"
	"tillpoint-pos-api/internal/syncer"
	"tillpoint-pos-api/pkg/apierror"
	"tillpoint-pos-api/pkg/response"
)

// SyncHandler exposes the manual "sync now" trigger and queue inspection.
type SyncHandler struct {
	engine  *syncer.Engine
	queue   *queue.ActionQueue
	monitor *connectivity.Monitor
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(engine *syncer.Engine, q *queue.ActionQueue, monitor *connectivity.Monitor) *SyncHandler {
	return &SyncHandler{engine: engine, queue: q, monitor: monitor}
}

// SyncNow handles POST /api/v1/sync - the operator-initiated drain.
// It refuses while offline and while another drain is in flight.
func (h *SyncHandler) SyncNow(w http.ResponseWriter, r *http.Request) {
	if !h.monitor.IsOnline() {
		response.Error(w, apierror.Conflict("cannot sync while offline"))
		return
	}
	if h.queue.Len() == 0 {
		response.OK(w, map[string]interface{}{
			"status":  "empty",
			"applied": 0,
		})
		return
	}

	applied, err := h.engine.Drain(r.Context(), syncer.TriggerManual)
	if err != nil {
		if errors.Is(err, syncer.ErrDrainInFlight) {
			response.Error(w, apierror.Conflict("a sync is already in progress"))
			return
		}
		// Nothing was lost: the queue still holds every action for retry.
		response.Error(w, apierror.ServiceUnavailable("sync failed; queued actions were retained"))
		return
	}

	response.OK(w, map[string]interface{}{
		"status":  "synced",
		"applied": applied,
	})
}

// ActionSummary is the wire form of one queued action.
type ActionSummary struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	ProductID  string    `json:"product_id,omitempty"`
	Quantity   int       `json:"quantity,omitempty"`
	CustomerID string    `json:"customer_id,omitempty"`
	Amount     float64   `json:"amount,omitempty"`
}

// Queue handles GET /api/v1/queue - pending-action inspection.
func (h *SyncHandler) Queue(w http.ResponseWriter, r *http.Request) {
	actions := h.queue.Snapshot()

	summaries := make([]ActionSummary, 0, len(actions))
	pending := 0
	for _, a := range actions {
		summary := ActionSummary{
			ID:         a.ID,
			Kind:       string(a.Kind),
			Status:     string(a.Status),
			EnqueuedAt: a.EnqueuedAt,
		}
		switch a.Kind {
		case model.ActionSale:
			if a.Sale != nil {
				summary.ProductID = a.Sale.ProductID
				summary.Quantity = a.Sale.Quantity
				summary.CustomerID = a.Sale.CustomerID
				summary.Amount = a.Sale.TotalAmount
			}
		case model.ActionCustomerBalance:
			if a.CustomerBalance != nil {
				summary.CustomerID = a.CustomerBalance.CustomerID
				summary.Amount = a.CustomerBalance.AmountToAdd
			}
		}
		if a.Status == model.ActionStatusPending {
			pending++
		}
		summaries = append(summaries, summary)
	}

	response.OK(w, map[string]interface{}{
		"total":        len(summaries),
		"pending":      pending,
		"sync_running": h.engine.InFlight(),
		"actions":      summaries,
	})
}
