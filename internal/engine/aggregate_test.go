package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/renatond/dbi-replenishment/internal/domain"
)

func TestAggregateStock_SumsBinsWithinLocation(t *testing.T) {
	idx := AggregateStock([]domain.AvailabilityRow{
		{SKU: "abc123", Location: "NC - Main", OnHand: 5, OnOrder: 2},
		{SKU: "ABC123", Location: "NC - Main", OnHand: 10, OnOrder: 3, InTransit: 1},
		{SKU: "ABC123", Location: "NC - Armory", OnHand: 30},
	})

	main := idx.At("ABC123", "NC - Main")
	assert.Equal(t, 15.0, main.OnHand)
	assert.Equal(t, 5.0, main.OnOrder)
	assert.Equal(t, 1.0, main.InTransit)

	total := idx.Totals("ABC123")
	assert.Equal(t, 45.0, total.OnHand)
	assert.Equal(t, 5.0, total.OnOrder)
}

func TestAggregateStock_RegionTotals(t *testing.T) {
	idx := AggregateStock([]domain.AvailabilityRow{
		{SKU: "X1", Location: "NC - Main", OnHand: 15, OnOrder: 5},
		{SKU: "X1", Location: "NC - Armory", OnHand: 30},
		{SKU: "X1", Location: "CA - Main", OnHand: 100},
	})

	nc := idx.RegionTotals("X1", "NC")
	assert.Equal(t, 45.0, nc.OnHand)
	assert.Equal(t, 5.0, nc.OnOrder)

	all := idx.RegionTotals("X1", "")
	assert.Equal(t, 145.0, all.OnHand)
}

func TestAggregateStock_UnknownSKUIsZero(t *testing.T) {
	idx := AggregateStock(nil)
	assert.Equal(t, StockTotals{}, idx.Totals("NOPE"))
	assert.Equal(t, StockTotals{}, idx.At("NOPE", "NC - Main"))
}

func TestStockTotals_Available(t *testing.T) {
	total := StockTotals{OnHand: 1, OnOrder: 2, InTransit: 3}
	assert.Equal(t, 6.0, total.Available())
}
