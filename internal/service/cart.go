package service

import (
	"fmt"

	"tillpoint-pos-api/internal/model"
)

// Cart is the transient checkout cart. It is never persisted; it exists
// only between "new sale" and "checkout" on a single till.
//
// Each line captures the product stock at the moment it was added, and
// quantity edits clamp against that captured value - the cart never
// revalidates against server truth until checkout. Under the single-writer
// assumption the captured stock can only go stale through this till's own
// queued sales.
type Cart struct {
	lines []model.CartLine
}

// NewCart creates an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// AddLine adds quantity units of product to the cart, merging into an
// existing line for the same product. The resulting quantity is clamped to
// the stock captured when the product first entered the cart.
func (c *Cart) AddLine(product model.Product, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	if product.Stock <= 0 {
		return fmt.Errorf("product %s is out of stock", product.ID)
	}

	for i := range c.lines {
		if c.lines[i].ProductID != product.ID {
			continue
		}
		merged := c.lines[i].Quantity + quantity
		if merged > c.lines[i].StockAtAddTime {
			merged = c.lines[i].StockAtAddTime
		}
		c.lines[i].Quantity = merged
		return nil
	}

	if quantity > product.Stock {
		quantity = product.Stock
	}
	c.lines = append(c.lines, model.CartLine{
		ProductID:      product.ID,
		UnitPrice:      product.Price,
		Quantity:       quantity,
		StockAtAddTime: product.Stock,
	})
	return nil
}

// SetQuantity updates a line's quantity. Zero (or negative) removes the
// line entirely rather than keeping it at quantity zero; values above the
// captured stock are clamped down to it.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	for i := range c.lines {
		if c.lines[i].ProductID != productID {
			continue
		}
		if quantity <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
		if quantity > c.lines[i].StockAtAddTime {
			quantity = c.lines[i].StockAtAddTime
		}
		c.lines[i].Quantity = quantity
		return nil
	}
	return fmt.Errorf("product %s not in cart", productID)
}

// Lines returns a copy of the cart contents in insertion order.
func (c *Cart) Lines() []model.CartLine {
	out := make([]model.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Subtotal returns the sum of unitPrice x quantity over all lines.
func (c *Cart) Subtotal() float64 {
	var subtotal float64
	for _, line := range c.lines {
		subtotal += line.UnitPrice * float64(line.Quantity)
	}
	return subtotal
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}
