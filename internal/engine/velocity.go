package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// MarginBand maps a margin range to a velocity adjustment. Bands are ordered
// ascending by UpTo; a margin falls into the first band it is below (or equal
// to, when Inclusive is set). UpTo of 0 means unbounded and closes the table.
type MarginBand struct {
	UpTo       float64 `json:"up_to"`
	Inclusive  bool    `json:"inclusive"`
	Adjustment float64 `json:"adjustment"`
}

// PriceTier scopes a set of margin bands to a cost-price range
// [MinPrice, MaxPrice). MaxPrice of 0 means unbounded.
type PriceTier struct {
	MinPrice float64      `json:"min_price"`
	MaxPrice float64      `json:"max_price"`
	Bands    []MarginBand `json:"bands"`
}

// TierTable is the externally supplied (price tier, margin band) adjustment
// table consumed by the velocity adjuster. The boundaries are a business
// parameter, never hard-coded in the calculation.
type TierTable []PriceTier

// DefaultTierTable reproduces the production adjustment table: low-margin
// items are throttled hard, healthy margins pass through, and only the very
// best margins get a small boost that shrinks as unit price grows.
func DefaultTierTable() TierTable {
	return TierTable{
		{MinPrice: 0, MaxPrice: 100, Bands: []MarginBand{
			{UpTo: 0.10, Adjustment: -0.8},
			{UpTo: 0.20, Adjustment: -0.5},
			{UpTo: 0.25, Adjustment: -0.2},
			{UpTo: 0.33, Inclusive: true, Adjustment: 0},
			{UpTo: 0, Adjustment: 0.10},
		}},
		{MinPrice: 100, MaxPrice: 250, Bands: []MarginBand{
			{UpTo: 0.10, Adjustment: -0.8},
			{UpTo: 0.20, Adjustment: -0.5},
			{UpTo: 0.30, Inclusive: true, Adjustment: 0},
			{UpTo: 0, Adjustment: 0.05},
		}},
		{MinPrice: 250, MaxPrice: 750, Bands: []MarginBand{
			{UpTo: 0.05, Adjustment: -0.8},
			{UpTo: 0.15, Adjustment: -0.5},
			{UpTo: 0.28, Inclusive: true, Adjustment: 0},
			{UpTo: 0, Adjustment: 0.03},
		}},
		{MinPrice: 750, MaxPrice: 0, Bands: []MarginBand{
			{UpTo: 0.05, Adjustment: -0.9},
			{UpTo: 0.12, Adjustment: -0.6},
			{UpTo: 0.25, Inclusive: true, Adjustment: 0},
			{UpTo: 0, Adjustment: 0.02},
		}},
	}
}

// LoadTierTable reads a tier table from a JSON file and validates it.
func LoadTierTable(path string) (TierTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tier table %s: %w", path, err)
	}
	var table TierTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse tier table %s: %w", path, err)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tier table %s: %w", path, err)
	}
	return table, nil
}

// Validate checks that price tiers are contiguous and ascending and that
// every tier's margin bands are ordered.
func (t TierTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("tier table is empty")
	}
	for i, tier := range t {
		if tier.MaxPrice != 0 && tier.MaxPrice <= tier.MinPrice {
			return fmt.Errorf("tier %d: max price %.2f not above min price %.2f", i, tier.MaxPrice, tier.MinPrice)
		}
		if i > 0 && t[i-1].MaxPrice != tier.MinPrice {
			return fmt.Errorf("tier %d: price range not contiguous with previous tier", i)
		}
		if i < len(t)-1 && tier.MaxPrice == 0 {
			return fmt.Errorf("tier %d: only the last tier may be unbounded", i)
		}
		if len(tier.Bands) == 0 {
			return fmt.Errorf("tier %d: no margin bands", i)
		}
		for j, band := range tier.Bands {
			if band.UpTo == 0 && j != len(tier.Bands)-1 {
				return fmt.Errorf("tier %d band %d: only the last band may be unbounded", i, j)
			}
			if j > 0 && band.UpTo != 0 && band.UpTo <= tier.Bands[j-1].UpTo {
				return fmt.Errorf("tier %d band %d: bounds not ascending", i, j)
			}
		}
	}
	return nil
}

// Adjustment resolves the velocity adjustment for a (cost price, margin)
// pair. Margins that fall between bands get 0.
func (t TierTable) Adjustment(price, margin float64) float64 {
	for _, tier := range t {
		if price < tier.MinPrice {
			continue
		}
		if tier.MaxPrice != 0 && price >= tier.MaxPrice {
			continue
		}
		for _, band := range tier.Bands {
			if band.UpTo == 0 {
				return band.Adjustment
			}
			if margin < band.UpTo || (band.Inclusive && margin == band.UpTo) {
				return band.Adjustment
			}
		}
		return 0
	}
	return 0
}

// ComputeMargin derives the profit margin for a record: total profit over
// total sales, 0 when there were no sales.
func ComputeMargin(rec *Record) float64 {
	if rec.TotalSales.IsZero() {
		return 0
	}
	return sanitize(rec.TotalProfit.Div(rec.TotalSales).InexactFloat64())
}

// AdjustVelocity fills ProfitMargin, VelocityAdjustment and AdjustedVelocity
// on every record. The baseline velocity is scaled by (1 + adjustment) and
// floored at zero.
func AdjustVelocity(records []*Record, table TierTable) {
	for _, rec := range records {
		rec.ProfitMargin = ComputeMargin(rec)
		price := sanitize(rec.CostPrice.InexactFloat64())
		rec.VelocityAdjustment = table.Adjustment(price, rec.ProfitMargin)
		rec.AdjustedVelocity = math.Max(0, rec.VelocityPerDay*(1+rec.VelocityAdjustment))
	}
}
