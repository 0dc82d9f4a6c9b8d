package engine

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/renatond/dbi-replenishment/internal/domain"
)

// Record is the per-SKU working unit threaded through the pipeline. Fields
// accumulate as each stage runs; a record never outlives a single run.
type Record struct {
	SKU                 string
	ProductName         string
	Supplier            string
	SupplierProductCode string

	// replenishment parameters
	LeadTimeDays   float64
	VelocityPerDay float64
	CostPrice      decimal.Decimal

	// sales aggregate over the history window
	TotalSales    decimal.Decimal
	TotalCOGS     decimal.Decimal
	TotalProfit   decimal.Decimal
	TotalQuantity float64

	// scoped stock position
	OnHand    float64
	OnOrder   float64
	InTransit float64

	// derived fields
	ProfitMargin       float64
	VelocityAdjustment float64
	AdjustedVelocity   float64
	DaysOfStock        float64
	TargetStock        float64
	POQuantity         int
	ABCTier            string
	Excluded           bool
}

// salesAggregate is one source table's worth of sales history collapsed to a
// per-SKU total.
type salesAggregate struct {
	Sales    decimal.Decimal
	COGS     decimal.Decimal
	Profit   decimal.Decimal
	Quantity float64
}

// aggregateSales collapses the per-period sales rows to one total per SKU.
// Duplicate (SKU, period) rows sum rather than error.
func aggregateSales(rows []domain.SalesRow) map[string]salesAggregate {
	out := make(map[string]salesAggregate)
	for _, row := range rows {
		sku := NormalizeSKU(row.SKU)
		if sku == "" {
			continue
		}
		agg := out[sku]
		agg.Sales = agg.Sales.Add(row.Sales)
		agg.COGS = agg.COGS.Add(row.COGS)
		agg.Profit = agg.Profit.Add(row.Profit)
		agg.Quantity += sanitize(row.Quantity)
		out[sku] = agg
	}
	return out
}

// aggregateReplenishment collapses duplicate replenishment rows per SKU by
// summing numeric fields, keeping the first non-empty name.
func aggregateReplenishment(rows []domain.ReplenishmentRow) (map[string]domain.ReplenishmentRow, []string) {
	out := make(map[string]domain.ReplenishmentRow)
	order := make([]string, 0, len(rows))
	for _, row := range rows {
		sku := NormalizeSKU(row.SKU)
		if sku == "" {
			continue
		}
		existing, ok := out[sku]
		if !ok {
			order = append(order, sku)
			existing = domain.ReplenishmentRow{SKU: sku, CostPrice: decimal.Zero}
		}
		existing.LeadTimeDays += sanitize(row.LeadTimeDays)
		existing.VelocityPerDay += sanitize(row.VelocityPerDay)
		existing.CostPrice = existing.CostPrice.Add(row.CostPrice)
		if existing.Name == "" {
			existing.Name = strings.TrimSpace(row.Name)
		}
		out[sku] = existing
	}
	return out, order
}

// indexInventory keeps the first inventory row per SKU, matching the source
// system's drop-duplicates-keep-first behavior for the supplier list.
func indexInventory(rows []domain.InventoryRow) map[string]domain.InventoryRow {
	out := make(map[string]domain.InventoryRow)
	for _, row := range rows {
		sku := NormalizeSKU(row.SKU)
		if sku == "" {
			continue
		}
		if _, ok := out[sku]; !ok {
			out[sku] = row
		}
	}
	return out
}

// MergeTables outer-joins the availability aggregate, the inventory list, the
// replenishment parameters and the sales aggregate on normalized SKU into one
// record per SKU. Unmatched SKUs get defined zero defaults rather than
// failing: a SKU with no replenishment parameters simply computes a zero
// order downstream, and a SKU with only sales history still participates in
// ABC ranking.
//
// Record order is deterministic: replenishment-report order first, then the
// remaining availability SKUs, then sales-only SKUs, each group sorted.
func MergeTables(stock *StockIndex, inventory []domain.InventoryRow, replenishment []domain.ReplenishmentRow, sales []domain.SalesRow, region string) []*Record {
	replBySKU, replOrder := aggregateReplenishment(replenishment)
	invBySKU := indexInventory(inventory)
	salesBySKU := aggregateSales(sales)

	seen := make(map[string]bool, len(replOrder))
	keys := make([]string, 0, len(replOrder))
	for _, sku := range replOrder {
		seen[sku] = true
		keys = append(keys, sku)
	}

	stockSKUs := stock.SKUs()
	sort.Strings(stockSKUs)
	for _, sku := range stockSKUs {
		if !seen[sku] {
			seen[sku] = true
			keys = append(keys, sku)
		}
	}

	salesSKUs := make([]string, 0, len(salesBySKU))
	for sku := range salesBySKU {
		if !seen[sku] {
			seen[sku] = true
			salesSKUs = append(salesSKUs, sku)
		}
	}
	sort.Strings(salesSKUs)
	keys = append(keys, salesSKUs...)

	records := make([]*Record, 0, len(keys))
	for _, sku := range keys {
		rec := &Record{
			SKU:         sku,
			CostPrice:   decimal.Zero,
			TotalSales:  decimal.Zero,
			TotalCOGS:   decimal.Zero,
			TotalProfit: decimal.Zero,
		}

		if repl, ok := replBySKU[sku]; ok {
			rec.LeadTimeDays = repl.LeadTimeDays
			rec.VelocityPerDay = repl.VelocityPerDay
			rec.CostPrice = repl.CostPrice
			rec.ProductName = repl.Name
		}

		if inv, ok := invBySKU[sku]; ok {
			rec.Supplier = strings.TrimSpace(inv.Supplier)
			rec.SupplierProductCode = strings.TrimSpace(inv.SupplierProductCode)
			// the inventory list name is the authoritative one
			if name := strings.TrimSpace(inv.Name); name != "" {
				rec.ProductName = name
			}
		}
		if rec.ProductName == "" {
			rec.ProductName = stock.ProductName(sku)
		}

		if agg, ok := salesBySKU[sku]; ok {
			rec.TotalSales = agg.Sales
			rec.TotalCOGS = agg.COGS
			rec.TotalProfit = agg.Profit
			rec.TotalQuantity = agg.Quantity
		}

		pos := stock.RegionTotals(sku, region)
		rec.OnHand = pos.OnHand
		rec.OnOrder = pos.OnOrder
		rec.InTransit = pos.InTransit

		records = append(records, rec)
	}

	return records
}
