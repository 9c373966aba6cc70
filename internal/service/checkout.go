package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"tillpoint-pos-api/internal/cache"
	"tillpoint-pos-api/internal/connectivity"
	"tillpoint-pos-api/internal/model"
	"tillpoint-pos-api/internal/queue"
	"tillpoint-pos-api/internal/repository"
	"tillpoint-pos-api/pkg/uid"
)

// DiscountType selects how a discount value is interpreted.
type DiscountType string

const (
	DiscountNone       DiscountType = ""
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Discount is a checkout-level discount, percentage or fixed amount.
type Discount struct {
	Type  DiscountType `json:"type"`
	Value float64      `json:"value"`
}

// CheckoutRequest describes one checkout of a cart.
type CheckoutRequest struct {
	Cart          *Cart
	CustomerName  string
	Discount      Discount
	PaymentMethod string
	// TaxRate overrides the configured rate when non-nil; either way the
	// rate is fixed for the whole checkout.
	TaxRate *float64
}

// CheckoutResult reports the computed totals and which path was taken.
type CheckoutResult struct {
	Subtotal       float64  `json:"subtotal"`
	DiscountAmount float64  `json:"discount_amount"`
	Total          float64  `json:"total"`
	GrandTotal     float64  `json:"grand_total"`
	Offline        bool     `json:"offline"`
	SaleIDs        []string `json:"sale_ids"`
	CustomerID     string   `json:"customer_id,omitempty"`
}

// CheckoutService is the point-of-sale checkout flow: it computes totals,
// decides the online vs. offline path, and either writes directly to the
// remote store or enqueues pending actions with an optimistic local update.
type CheckoutService struct {
	repo    repository.POSRepository
	queue   *queue.ActionQueue
	cache   *cache.SnapshotCache
	monitor *connectivity.Monitor
	taxRate float64
}

// NewCheckoutService creates a checkout service with the given default tax
// rate.
func NewCheckoutService(
	repo repository.POSRepository,
	q *queue.ActionQueue,
	snapshots *cache.SnapshotCache,
	monitor *connectivity.Monitor,
	taxRate float64,
) *CheckoutService {
	return &CheckoutService{
		repo:    repo,
		queue:   q,
		cache:   snapshots,
		monitor: monitor,
		taxRate: taxRate,
	}
}

// LineItem is one requested cart entry, by product ID.
type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// BuildCart resolves product IDs and quantities into a cart, reading the
// remote catalogue while online and the cached snapshot while offline.
func (s *CheckoutService) BuildCart(ctx context.Context, items []LineItem) (*Cart, error) {
	cart := NewCart()

	if s.monitor.IsOnline() {
		for _, item := range items {
			product, err := s.repo.GetProduct(ctx, item.ProductID)
			if err != nil {
				return nil, fmt.Errorf("failed to look up product %s: %w", item.ProductID, err)
			}
			if product == nil {
				return nil, fmt.Errorf("product %s not found", item.ProductID)
			}
			if err := cart.AddLine(*product, item.Quantity); err != nil {
				return nil, err
			}
		}
		return cart, nil
	}

	products, err := s.cache.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("offline and no cached product snapshot: %w", err)
	}
	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s not found in cached snapshot", item.ProductID)
		}
		if err := cart.AddLine(product, item.Quantity); err != nil {
			return nil, err
		}
	}
	return cart, nil
}

// Checkout completes a sale. Totals are computed the same on both paths:
//
//	subtotal   = sum(unitPrice x quantity)
//	discount   = percentage or fixed, clamped to [0, subtotal]
//	total      = max(0, subtotal - discount)
//	grandTotal = total x (1 + taxRate)
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.Cart == nil || req.Cart.Empty() {
		return nil, fmt.Errorf("cart is empty")
	}

	subtotal := req.Cart.Subtotal()
	discountAmount := computeDiscount(subtotal, req.Discount)
	total := subtotal - discountAmount
	if total < 0 {
		total = 0
	}

	taxRate := s.taxRate
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}
	grandTotal := total * (1 + taxRate)

	result := &CheckoutResult{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		Total:          total,
		GrandTotal:     grandTotal,
	}

	if s.monitor.IsOnline() {
		if err := s.checkoutOnline(ctx, req, result); err != nil {
			return nil, err
		}
	} else {
		result.Offline = true
		if err := s.checkoutOffline(ctx, req, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// computeDiscount clamps the discount into [0, subtotal].
func computeDiscount(subtotal float64, d Discount) float64 {
	var amount float64
	switch d.Type {
	case DiscountPercentage:
		amount = subtotal * d.Value / 100
	case DiscountFixed:
		amount = d.Value
	default:
		return 0
	}
	if amount < 0 {
		return 0
	}
	if amount > subtotal {
		return subtotal
	}
	return amount
}

// checkoutOnline writes the sale rows, stock decrements and the customer
// lifetime-value increment as independent remote calls. There is no
// transactional wrapping: a failure partway leaves the earlier writes in
// place, matching the remote store's native CRUD semantics, and surfaces
// to the operator as a checkout failure.
func (s *CheckoutService) checkoutOnline(ctx context.Context, req CheckoutRequest, result *CheckoutResult) error {
	customer, err := s.resolveCustomerOnline(ctx, req.CustomerName)
	if err != nil {
		return err
	}

	customerID := ""
	if customer != nil {
		customerID = customer.ID
		result.CustomerID = customer.ID
	}

	now := time.Now().UTC()
	for _, line := range req.Cart.Lines() {
		sale := model.Sale{
			ID:            uid.New(),
			ProductID:     line.ProductID,
			CustomerID:    customerID,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			TotalAmount:   line.UnitPrice * float64(line.Quantity),
			PaymentMethod: req.PaymentMethod,
			Status:        model.SaleStatusCompleted,
			CreatedAt:     now,
		}
		if err := s.repo.InsertSale(ctx, sale); err != nil {
			return fmt.Errorf("checkout failed recording sale: %w", err)
		}
		if err := s.repo.AdjustStock(ctx, line.ProductID, -line.Quantity); err != nil {
			return fmt.Errorf("checkout failed updating stock: %w", err)
		}
		result.SaleIDs = append(result.SaleIDs, sale.ID)
	}

	if customer != nil {
		if err := s.repo.AddLifetimeValue(ctx, customer.ID, customer.Name, result.GrandTotal); err != nil {
			return fmt.Errorf("checkout failed updating customer value: %w", err)
		}
	}

	// Keep the offline fallback baseline fresh. Best effort only.
	if products, err := s.repo.ListProducts(ctx); err == nil {
		if err := s.cache.PutProducts(ctx, products); err != nil {
			log.Printf("[CheckoutService] Failed to refresh products snapshot: %v", err)
		}
	}
	return nil
}

// resolveCustomerOnline finds a customer by case-insensitive name, creating
// the record with a zero lifetime value on a miss. An empty name means an
// anonymous sale.
func (s *CheckoutService) resolveCustomerOnline(ctx context.Context, name string) (*model.Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	customer, err := s.repo.FindCustomerByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve customer: %w", err)
	}
	if customer != nil {
		return customer, nil
	}

	created := model.Customer{ID: uid.New(), Name: name, LifetimeValue: 0}
	if err := s.repo.InsertCustomer(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &created, nil
}

// checkoutOffline enqueues one Sale action per cart line (carrying the
// precomputed post-sale stock) plus a CustomerBalanceUpdate when a customer
// is attached, then optimistically overwrites the cached product snapshot
// so reads reflect the decrement before any sync happens.
//
// Every action is fully constructed and durably persisted before the next
// line is touched; an enqueue failure aborts the checkout loudly and
// removes the checkout's earlier actions from the queue.
func (s *CheckoutService) checkoutOffline(ctx context.Context, req CheckoutRequest, result *CheckoutResult) error {
	products, err := s.cache.Products(ctx)
	if err != nil {
		return fmt.Errorf("offline checkout needs a cached product snapshot: %w", err)
	}

	index := make(map[string]int, len(products))
	for i, p := range products {
		index[p.ID] = i
	}

	customer, customers, customerCreated, err := s.resolveCustomerOffline(ctx, req.CustomerName)
	if err != nil {
		return err
	}
	customerID := ""
	if customer != nil {
		customerID = customer.ID
		result.CustomerID = customer.ID
	}

	now := time.Now().UTC()
	var appended []string
	for _, line := range req.Cart.Lines() {
		i, ok := index[line.ProductID]
		if !ok {
			s.rollbackQueued(ctx, appended)
			return fmt.Errorf("product %s not found in cached snapshot", line.ProductID)
		}

		// NewStock assumes every previously queued decrement for this
		// product already happened; replaying out of order would produce
		// detectably wrong stock values.
		newStock := products[i].Stock - line.Quantity
		saleID := uid.New()

		action := model.PendingAction{
			ID:   uid.New(),
			Kind: model.ActionSale,
			Sale: &model.SalePayload{
				SaleID:        saleID,
				ProductID:     line.ProductID,
				CustomerID:    customerID,
				Quantity:      line.Quantity,
				UnitPrice:     line.UnitPrice,
				TotalAmount:   line.UnitPrice * float64(line.Quantity),
				PaymentMethod: req.PaymentMethod,
				Status:        model.SaleStatusCompleted,
				NewStock:      newStock,
			},
			Status:     model.ActionStatusPending,
			EnqueuedAt: now,
		}
		if err := s.queue.Append(ctx, action); err != nil {
			s.rollbackQueued(ctx, appended)
			return fmt.Errorf("failed to queue offline sale: %w", err)
		}
		appended = append(appended, action.ID)

		products[i].Stock = newStock
		result.SaleIDs = append(result.SaleIDs, saleID)
	}

	if customer != nil {
		action := model.PendingAction{
			ID:   uid.New(),
			Kind: model.ActionCustomerBalance,
			CustomerBalance: &model.CustomerBalancePayload{
				CustomerID:   customer.ID,
				CustomerName: customer.Name,
				AmountToAdd:  result.GrandTotal,
			},
			Status:     model.ActionStatusPending,
			EnqueuedAt: now,
		}
		if err := s.queue.Append(ctx, action); err != nil {
			s.rollbackQueued(ctx, appended)
			return fmt.Errorf("failed to queue customer balance update: %w", err)
		}
	}

	// Optimistic local updates so the till UI reflects the sale without
	// waiting for sync. Snapshot write failures are logged, not fatal:
	// the queued actions are already durable.
	if err := s.cache.PutProducts(ctx, products); err != nil {
		log.Printf("[CheckoutService] Failed to update products snapshot: %v", err)
	}
	if customer != nil {
		if customerCreated {
			customers = append(customers, *customer)
		}
		for i := range customers {
			if customers[i].ID == customer.ID {
				customers[i].LifetimeValue += result.GrandTotal
			}
		}
		if err := s.cache.PutCustomers(ctx, customers); err != nil {
			log.Printf("[CheckoutService] Failed to update customers snapshot: %v", err)
		}
	}
	return nil
}

// rollbackQueued removes this checkout's already-appended actions after a
// later enqueue fails. Without it a failed checkout would partially sync:
// the early lines would drain while the snapshot never reflected them.
func (s *CheckoutService) rollbackQueued(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	if err := s.queue.Remove(ctx, ids); err != nil {
		log.Printf("[CheckoutService] Failed to roll back %d queued actions: %v", len(ids), err)
	}
}

// resolveCustomerOffline matches the customer name case-insensitively
// against the cached snapshot, minting a new record locally on a miss. The
// remote record materializes when the queued balance update is applied.
func (s *CheckoutService) resolveCustomerOffline(ctx context.Context, name string) (*model.Customer, []model.Customer, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, false, nil
	}

	customers, err := s.cache.Customers(ctx)
	if err != nil && err != cache.ErrNoSnapshot {
		return nil, nil, false, fmt.Errorf("failed to read cached customers: %w", err)
	}

	for _, c := range customers {
		if strings.EqualFold(c.Name, name) {
			matched := c
			return &matched, customers, false, nil
		}
	}

	created := model.Customer{ID: uid.New(), Name: name, LifetimeValue: 0}
	return &created, customers, true, nil
}
