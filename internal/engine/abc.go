package engine

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ABC tier cut points: the top 70% of cumulative profit is tier A, the next
// 20% tier B, the remaining 10% tier C.
var (
	abcTierACutoff = decimal.NewFromFloat(0.70)
	abcTierBCutoff = decimal.NewFromFloat(0.90)
)

// SupplierFilter reports whether a supplier name is excluded from purchase
// orders. Implementations must match case-insensitively.
type SupplierFilter interface {
	Excluded(name string) bool
}

// nopFilter excludes nothing.
type nopFilter struct{}

func (nopFilter) Excluded(string) bool { return false }

// RankABC assigns A/B/C tiers by cumulative profit share. Records are ranked
// descending by total profit with ties kept in their original order; the
// running share of total profit decides the tier. When total profit is zero
// or negative there is no meaningful split and every record lands in C.
func RankABC(records []*Record) {
	if len(records) == 0 {
		return
	}

	ranked := make([]*Record, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalProfit.GreaterThan(ranked[j].TotalProfit)
	})

	total := decimal.Zero
	for _, rec := range ranked {
		total = total.Add(rec.TotalProfit)
	}

	if total.LessThanOrEqual(decimal.Zero) {
		for _, rec := range ranked {
			rec.ABCTier = "C"
		}
		return
	}

	cumulative := decimal.Zero
	for _, rec := range ranked {
		cumulative = cumulative.Add(rec.TotalProfit)
		share := cumulative.Div(total)
		switch {
		case share.LessThanOrEqual(abcTierACutoff):
			rec.ABCTier = "A"
		case share.LessThanOrEqual(abcTierBCutoff):
			rec.ABCTier = "B"
		default:
			rec.ABCTier = "C"
		}
	}
}

// ApplySupplierFilter marks records whose supplier is excluded. The match is
// case-insensitive and runs last, as a gate before output.
func ApplySupplierFilter(records []*Record, filter SupplierFilter) int {
	if filter == nil {
		filter = nopFilter{}
	}
	excluded := 0
	for _, rec := range records {
		if rec.Supplier == "" {
			continue
		}
		if filter.Excluded(strings.TrimSpace(rec.Supplier)) {
			rec.Excluded = true
			excluded++
		}
	}
	return excluded
}
