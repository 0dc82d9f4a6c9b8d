package engine

import (
	"math"
	"sort"

	"github.com/renatond/dbi-replenishment/internal/domain"
)

const (
	// DefaultAssemblyDaysOfStock is the coverage horizon for the assembly
	// replenishment flow.
	DefaultAssemblyDaysOfStock = 30

	// donorLowStockThreshold guards transfers out of a donor location that is
	// itself running low.
	donorLowStockThreshold = 20

	// build-target bounds for the derivation heuristic
	minBuildQty      = 2
	maxBuildQtyFloor = 10
	absoluteMaxBuild = 1000
)

// Velocity is the sales velocity derived from the quantity history window.
type Velocity struct {
	AvgDaily   float64
	AvgMonthly float64
}

// SalesVelocity computes per-SKU average daily and monthly unit sales from
// the quantity history: total units over the window divided by the period
// count, with 30 days to a period.
func SalesVelocity(sales []domain.SalesRow, periods int) map[string]Velocity {
	if periods <= 0 {
		periods = 6
	}
	totals := make(map[string]float64)
	for _, row := range sales {
		sku := NormalizeSKU(row.SKU)
		if sku == "" {
			continue
		}
		totals[sku] += sanitize(row.Quantity)
	}

	out := make(map[string]Velocity, len(totals))
	for sku, total := range totals {
		monthly := total / float64(periods)
		out[sku] = Velocity{
			AvgDaily:   monthly / 30,
			AvgMonthly: monthly,
		}
	}
	return out
}

// AssemblyEngine computes assembly feasibility, donor-location transfers and
// residual purchase needs for assembled SKUs.
type AssemblyEngine struct {
	Locations   []string // locations participating in assembly stock counts
	Donor       string   // transfer donor location
	Primary     string   // transfer recipient location
	DaysOfStock float64
	SkipSKUs    map[string]bool
}

// NewAssemblyEngine builds an engine with defaults filled in.
func NewAssemblyEngine(locations []string, donor, primary string) *AssemblyEngine {
	return &AssemblyEngine{
		Locations:   locations,
		Donor:       donor,
		Primary:     primary,
		DaysOfStock: DefaultAssemblyDaysOfStock,
		SkipSKUs:    make(map[string]bool),
	}
}

// bomIndex groups BOM rows by normalized parent SKU, preserving row order.
type bomIndex struct {
	byParent    map[string][]domain.BOMRow
	parents     []string
	isComponent map[string]bool
}

func indexBOM(rows []domain.BOMRow) *bomIndex {
	idx := &bomIndex{
		byParent:    make(map[string][]domain.BOMRow),
		isComponent: make(map[string]bool),
	}
	for _, row := range rows {
		parent := NormalizeSKU(row.ParentSKU)
		component := NormalizeSKU(row.ComponentSKU)
		if parent == "" || component == "" {
			continue
		}
		if _, ok := idx.byParent[parent]; !ok {
			idx.parents = append(idx.parents, parent)
		}
		row.ParentSKU = parent
		row.ComponentSKU = component
		idx.byParent[parent] = append(idx.byParent[parent], row)
		idx.isComponent[component] = true
	}
	return idx
}

// EligibleParents filters the inventory list down to the assembled SKUs this
// flow manages: flagged as having an assembly BOM, not auto-assembled or
// auto-disassembled, not on the skip list, and actually present in the BOM.
func (e *AssemblyEngine) EligibleParents(inventory []domain.InventoryRow, bom []domain.BOMRow) []string {
	idx := indexBOM(bom)
	seen := make(map[string]bool)
	var out []string
	for _, row := range inventory {
		sku := NormalizeSKU(row.SKU)
		if sku == "" || seen[sku] {
			continue
		}
		seen[sku] = true
		if !row.AssemblyBOM || row.AutoAssemble || row.AutoDisassemble {
			continue
		}
		if e.SkipSKUs[sku] {
			continue
		}
		if len(idx.byParent[sku]) == 0 {
			continue
		}
		out = append(out, sku)
	}
	return out
}

// DeriveBuildTargets proposes a build quantity for each eligible parent from
// its sales velocity and inventory position. A parent needs building when its
// available-plus-inbound stock cannot cover a month of sales; the proposal is
// at least 2 units, capped at three months of sales and an absolute 1000.
func (e *AssemblyEngine) DeriveBuildTargets(parents []string, stock *StockIndex, velocities map[string]Velocity) map[string]float64 {
	targets := make(map[string]float64)
	for _, sku := range parents {
		pos := stock.LocationsTotals(sku, e.Locations)
		vel := velocities[sku]

		targetInventory := vel.AvgDaily * e.DaysOfStock
		replenishQty := math.Max(0, targetInventory-pos.Available())
		needs := (pos.Available() + pos.OnOrder) < vel.AvgMonthly
		if !needs || replenishQty <= 0 {
			continue
		}

		base := math.Max(minBuildQty, math.Round(vel.AvgMonthly-pos.Available()))
		ceiling := math.Max(maxBuildQtyFloor, math.Round(vel.AvgMonthly*3))
		targets[sku] = math.Min(math.Min(base, ceiling), absoluteMaxBuild)
	}
	return targets
}

// Analyze produces the assembly decision for every parent with a positive
// build target. Component availability is scoped to the participating
// locations; the terminal status compares total component stock on hand
// against total component demand, with the boundary itself counting as
// unbuildable.
func (e *AssemblyEngine) Analyze(bom []domain.BOMRow, stock *StockIndex, targets map[string]float64, velocities map[string]Velocity) []domain.AssemblyOrder {
	idx := indexBOM(bom)

	var orders []domain.AssemblyOrder
	for _, parent := range idx.parents {
		target := targets[parent]
		if target <= 0 {
			continue
		}
		components := idx.byParent[parent]

		order := domain.AssemblyOrder{
			SKU:      parent,
			Name:     components[0].ParentName,
			BuildQty: target,
		}
		vel := velocities[parent]
		order.AvgDailySales = vel.AvgDaily
		order.AvgMonthlySales = vel.AvgMonthly
		order.AvailableTotal = stock.LocationsTotals(parent, e.Locations).Available()

		var totalOnHand, totalNeeded float64
		for _, comp := range components {
			needed := sanitize(comp.QtyPerUnit) * target
			avail := stock.LocationsTotals(comp.ComponentSKU, e.Locations)
			donor := stock.At(comp.ComponentSKU, e.Donor)

			req := domain.ComponentRequirement{
				SKU:        comp.ComponentSKU,
				Name:       comp.ComponentName,
				QtyPerUnit: comp.QtyPerUnit,
				QtyNeeded:  needed,
				Available:  avail.Available(),
				OnHand:     avail.OnHand,
				Shortage:   math.Max(0, needed-avail.Available()),
			}

			req.TransferNeeded = math.Max(needed, donor.Available())
			if donor.OnHand < donorLowStockThreshold && req.TransferNeeded < donor.OnHand {
				req.FinalTransfer = req.TransferNeeded
			}
			residual := req.TransferNeeded - req.FinalTransfer
			if donor.Available() > residual {
				req.AdditionalBuy = 0
			} else {
				req.AdditionalBuy = residual
			}

			if req.Shortage == 0 {
				order.ReadyComponents++
			}

			totalOnHand += avail.OnHand
			totalNeeded += needed
			order.Components = append(order.Components, req)
		}

		if totalOnHand-totalNeeded <= 0 {
			order.Status = domain.StatusCannotAssemble
		} else {
			order.Status = domain.StatusReadyForProduction
		}

		orders = append(orders, order)
	}

	return orders
}

// ComponentReplenishments sizes velocity-based orders for component SKUs
// that are bought rather than assembled. The raw quantity is
// ceil(max(0, avgDaily × daysOfStock − currentTotal)); a computed 0 becomes
// a minimum order of 1, a rule specific to this sub-flow.
func (e *AssemblyEngine) ComponentReplenishments(bom []domain.BOMRow, stock *StockIndex, velocities map[string]Velocity) []domain.ComponentReplenishment {
	idx := indexBOM(bom)

	names := make(map[string]string)
	var skus []string
	for _, rows := range idx.byParent {
		for _, row := range rows {
			if _, ok := names[row.ComponentSKU]; !ok {
				names[row.ComponentSKU] = row.ComponentName
				skus = append(skus, row.ComponentSKU)
			}
		}
	}
	sort.Strings(skus)

	var out []domain.ComponentReplenishment
	for _, sku := range skus {
		// components that are themselves assemblies are built, not bought
		if len(idx.byParent[sku]) > 0 {
			continue
		}
		vel := velocities[sku]
		current := stock.LocationsTotals(sku, e.Locations).Available()

		qty := int(math.Ceil(math.Max(0, vel.AvgDaily*e.DaysOfStock-current)))
		if qty == 0 {
			qty = 1
		}

		out = append(out, domain.ComponentReplenishment{
			SKU:           sku,
			Name:          names[sku],
			AvgDailySales: vel.AvgDaily,
			CurrentTotal:  current,
			Quantity:      qty,
		})
	}
	return out
}

// TransferRecommendations flags donor-location overstock worth moving to the
// primary location: items with more than 20 on hand at the donor that are not
// BOM components, while the primary holds fewer than 20.
func (e *AssemblyEngine) TransferRecommendations(stock *StockIndex, bom []domain.BOMRow) []domain.TransferRecommendation {
	idx := indexBOM(bom)

	skus := stock.SKUs()
	sort.Strings(skus)

	var out []domain.TransferRecommendation
	for _, sku := range skus {
		donor := stock.At(sku, e.Donor)
		if donor.OnHand <= donorLowStockThreshold || idx.isComponent[sku] {
			continue
		}
		main := stock.At(sku, e.Primary)
		if main.OnHand >= donorLowStockThreshold {
			continue
		}
		qty := math.Min(donor.OnHand-donorLowStockThreshold, donorLowStockThreshold-main.OnHand)
		if qty <= 0 {
			continue
		}
		out = append(out, domain.TransferRecommendation{
			SKU:          sku,
			ProductName:  stock.ProductName(sku),
			FromLocation: e.Donor,
			ToLocation:   e.Primary,
			DonorOnHand:  donor.OnHand,
			MainOnHand:   main.OnHand,
			Quantity:     qty,
		})
	}
	return out
}
