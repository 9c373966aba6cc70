package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint-pos-api/internal/model"
)

func TestCart_AddLine(t *testing.T) {
	cart := NewCart()

	require.NoError(t, cart.AddLine(model.Product{ID: "p1", Price: 2.50, Stock: 10}, 3))

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "p1", lines[0].ProductID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, 10, lines[0].StockAtAddTime)
	assert.InDelta(t, 7.50, cart.Subtotal(), 1e-9)
}

func TestCart_AddLineRejectsBadInput(t *testing.T) {
	cart := NewCart()

	assert.Error(t, cart.AddLine(model.Product{ID: "p1", Stock: 10}, 0))
	assert.Error(t, cart.AddLine(model.Product{ID: "p1", Stock: 10}, -1))
	assert.Error(t, cart.AddLine(model.Product{ID: "p2", Stock: 0}, 1))
	assert.True(t, cart.Empty())
}

func TestCart_AddLineMergesSameProduct(t *testing.T) {
	cart := NewCart()
	product := model.Product{ID: "p1", Price: 2, Stock: 10}

	require.NoError(t, cart.AddLine(product, 2))
	require.NoError(t, cart.AddLine(product, 3))

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestCart_AddLineClampsToCapturedStock(t *testing.T) {
	cart := NewCart()
	product := model.Product{ID: "p1", Price: 2, Stock: 4}

	// Initial add above stock clamps down.
	require.NoError(t, cart.AddLine(product, 9))
	assert.Equal(t, 4, cart.Lines()[0].Quantity)

	// Merging clamps against the stock captured at first add, even if the
	// caller passes a product struct with different stock now.
	require.NoError(t, cart.AddLine(model.Product{ID: "p1", Price: 2, Stock: 99}, 5))
	assert.Equal(t, 4, cart.Lines()[0].Quantity)
}

func TestCart_SetQuantity(t *testing.T) {
	cart := NewCart()
	require.NoError(t, cart.AddLine(model.Product{ID: "p1", Price: 2, Stock: 10}, 2))

	require.NoError(t, cart.SetQuantity("p1", 7))
	assert.Equal(t, 7, cart.Lines()[0].Quantity)

	// Above captured stock clamps down.
	require.NoError(t, cart.SetQuantity("p1", 15))
	assert.Equal(t, 10, cart.Lines()[0].Quantity)
}

func TestCart_SetQuantityZeroRemovesLine(t *testing.T) {
	cart := NewCart()
	require.NoError(t, cart.AddLine(model.Product{ID: "p1", Price: 2, Stock: 10}, 2))
	require.NoError(t, cart.AddLine(model.Product{ID: "p2", Price: 3, Stock: 5}, 1))

	require.NoError(t, cart.SetQuantity("p1", 0))

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "p2", lines[0].ProductID)
}

func TestCart_SetQuantityUnknownProduct(t *testing.T) {
	cart := NewCart()
	assert.Error(t, cart.SetQuantity("ghost", 1))
}

func TestCart_LinesReturnsCopy(t *testing.T) {
	cart := NewCart()
	require.NoError(t, cart.AddLine(model.Product{ID: "p1", Price: 2, Stock: 10}, 2))

	lines := cart.Lines()
	lines[0].Quantity = 99

	assert.Equal(t, 2, cart.Lines()[0].Quantity)
}
