package engine

import "math"

// DefaultSafetyBufferDays is the fixed buffer added to lead time when sizing
// a purchase order.
const DefaultSafetyBufferDays = 3

// POCalculator computes purchase-order quantities from the adjusted velocity
// and the scoped stock position on each record.
type POCalculator struct {
	safetyBufferDays float64
}

// NewPOCalculator builds a calculator with the given safety buffer; values
// at or below zero fall back to the default 3 days.
func NewPOCalculator(safetyBufferDays float64) *POCalculator {
	if safetyBufferDays <= 0 {
		safetyBufferDays = DefaultSafetyBufferDays
	}
	return &POCalculator{safetyBufferDays: safetyBufferDays}
}

// Calculate fills DaysOfStock, TargetStock and POQuantity on a record.
//
//	DaysOfStock = LeadTime + safety buffer
//	TargetStock = AdjustedVelocity × DaysOfStock
//	POQuantity  = ceil(max(0, TargetStock − OnHand − OnOrder))
//
// A computed quantity of exactly 0 stays 0 here: the minimum-order-of-1
// override belongs to the assembly replenishment sub-flow only.
func (c *POCalculator) Calculate(rec *Record) {
	rec.DaysOfStock = sanitize(rec.LeadTimeDays) + c.safetyBufferDays
	rec.TargetStock = rec.AdjustedVelocity * rec.DaysOfStock

	qty := rec.TargetStock - rec.OnHand - rec.OnOrder
	if qty < 0 {
		qty = 0
	}
	rec.POQuantity = int(math.Ceil(qty))
}

// CalculateAll runs Calculate over every record.
func (c *POCalculator) CalculateAll(records []*Record) {
	for _, rec := range records {
		c.Calculate(rec)
	}
}
