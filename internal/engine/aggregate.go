package engine

import (
	"strings"

	"github.com/renatond/dbi-replenishment/internal/domain"
)

// StockTotals is the aggregated OnHand/OnOrder/InTransit triple for a SKU,
// either for a single location or summed across several.
type StockTotals struct {
	OnHand    float64
	OnOrder   float64
	InTransit float64
}

// Available is the full inventory position: on hand plus inbound.
func (t StockTotals) Available() float64 {
	return t.OnHand + t.OnOrder + t.InTransit
}

func (t *StockTotals) add(o domain.AvailabilityRow) {
	t.OnHand += sanitize(o.OnHand)
	t.OnOrder += sanitize(o.OnOrder)
	t.InTransit += sanitize(o.InTransit)
}

// StockIndex holds availability collapsed to one triple per (SKU, Location)
// along with cross-location totals per SKU. Multiple bins within a location
// are summed during construction.
type StockIndex struct {
	byLocation map[string]map[string]StockTotals // SKU -> location -> totals
	totals     map[string]StockTotals            // SKU -> all locations
	names      map[string]string                 // SKU -> product name from the export
}

// AggregateStock builds a StockIndex from raw availability rows. SKU keys are
// normalized; missing numeric fields were already coerced to 0 by the loader.
func AggregateStock(rows []domain.AvailabilityRow) *StockIndex {
	idx := &StockIndex{
		byLocation: make(map[string]map[string]StockTotals),
		totals:     make(map[string]StockTotals),
		names:      make(map[string]string),
	}

	for _, row := range rows {
		sku := NormalizeSKU(row.SKU)
		if sku == "" {
			continue
		}
		loc := strings.TrimSpace(row.Location)

		locs, ok := idx.byLocation[sku]
		if !ok {
			locs = make(map[string]StockTotals)
			idx.byLocation[sku] = locs
		}

		at := locs[loc]
		at.add(row)
		locs[loc] = at

		total := idx.totals[sku]
		total.add(row)
		idx.totals[sku] = total

		if name := strings.TrimSpace(row.ProductName); name != "" && idx.names[sku] == "" {
			idx.names[sku] = name
		}
	}

	return idx
}

// Totals returns the cross-location totals for a SKU. Unknown SKUs resolve
// to the zero triple.
func (s *StockIndex) Totals(sku string) StockTotals {
	return s.totals[NormalizeSKU(sku)]
}

// At returns the aggregated triple for one (SKU, location) pair.
func (s *StockIndex) At(sku, location string) StockTotals {
	return s.byLocation[NormalizeSKU(sku)][strings.TrimSpace(location)]
}

// RegionTotals sums the SKU's stock over every location whose name starts
// with the region prefix ("NC" covers "NC - Main", "NC - Armory", ...).
// An empty region yields the cross-location totals.
func (s *StockIndex) RegionTotals(sku, region string) StockTotals {
	key := NormalizeSKU(sku)
	if region == "" {
		return s.totals[key]
	}

	var out StockTotals
	for loc, t := range s.byLocation[key] {
		if strings.HasPrefix(strings.ToUpper(loc), strings.ToUpper(region)) {
			out.OnHand += t.OnHand
			out.OnOrder += t.OnOrder
			out.InTransit += t.InTransit
		}
	}
	return out
}

// LocationsTotals sums the SKU's stock over an explicit location list, used
// by the assembly flow to scope availability to the participating warehouses.
func (s *StockIndex) LocationsTotals(sku string, locations []string) StockTotals {
	key := NormalizeSKU(sku)
	var out StockTotals
	for _, loc := range locations {
		t := s.byLocation[key][strings.TrimSpace(loc)]
		out.OnHand += t.OnHand
		out.OnOrder += t.OnOrder
		out.InTransit += t.InTransit
	}
	return out
}

// SKUs returns every SKU present in the availability data.
func (s *StockIndex) SKUs() []string {
	out := make([]string, 0, len(s.totals))
	for sku := range s.totals {
		out = append(out, sku)
	}
	return out
}

// ProductName returns the name carried on the availability rows, if any.
func (s *StockIndex) ProductName(sku string) string {
	return s.names[NormalizeSKU(sku)]
}

// LocationRows returns every (location, totals) pair for a SKU. Order is not
// defined; callers that need determinism sort the result.
func (s *StockIndex) LocationRows(sku string) map[string]StockTotals {
	return s.byLocation[NormalizeSKU(sku)]
}
