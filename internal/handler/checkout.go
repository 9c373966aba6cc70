package handler

import (
	"encoding/json"
	"net/http"

	"tillpoint-pos-api/internal/service"
	"tillpoint-pos-api/pkg/apierror"
	"tillpoint-pos-api/pkg/response"
)

// CheckoutHandler handles point-of-sale checkout requests.
type CheckoutHandler struct {
	checkoutService *service.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(checkoutService *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// CheckoutRequest is the JSON body for POST /api/v1/checkout.
type CheckoutRequest struct {
	Lines         []service.LineItem `json:"lines"`
	CustomerName  string             `json:"customer_name,omitempty"`
	Discount      service.Discount   `json:"discount"`
	PaymentMethod string             `json:"payment_method"`
	TaxRate       *float64           `json:"tax_rate,omitempty"`
}

// Checkout handles POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	defer r.Body.Close()

	if len(req.Lines) == 0 {
		response.Error(w, apierror.ValidationError("cart is empty",
			apierror.FieldError{Field: "lines", Message: "at least one line is required"}))
		return
	}
	for _, line := range req.Lines {
		if line.ProductID == "" || line.Quantity <= 0 {
			response.Error(w, apierror.ValidationError("invalid cart line",
				apierror.FieldError{Field: "lines", Message: "product_id and a positive quantity are required"}))
			return
		}
	}
	switch req.Discount.Type {
	case service.DiscountNone, service.DiscountPercentage, service.DiscountFixed:
	default:
		response.Error(w, apierror.ValidationError("invalid discount",
			apierror.FieldError{Field: "discount.type", Message: "must be percentage or fixed"}))
		return
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cash"
	}

	cart, err := h.checkoutService.BuildCart(r.Context(), req.Lines)
	if err != nil {
		response.Error(w, apierror.UnprocessableEntity(err.Error()))
		return
	}

	result, err := h.checkoutService.Checkout(r.Context(), service.CheckoutRequest{
		Cart:          cart,
		CustomerName:  req.CustomerName,
		Discount:      req.Discount,
		PaymentMethod: req.PaymentMethod,
		TaxRate:       req.TaxRate,
	})
	if err != nil {
		// Checkout failures surface synchronously to the operator; the
		// till stays usable.
		response.Error(w, apierror.UnprocessableEntity(err.Error()))
		return
	}

	response.Created(w, result)
}
