package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renatond/dbi-replenishment/internal/domain"
)

var assemblyLocations = []string{"NC - Main", "NC - Armory", "NC - FFL"}

func newTestAssemblyEngine() *AssemblyEngine {
	return NewAssemblyEngine(assemblyLocations, "NC - Armory", "NC - Main")
}

func availRow(sku, location string, onHand, onOrder float64) domain.AvailabilityRow {
	return domain.AvailabilityRow{SKU: sku, ProductName: sku + " name", Location: location, OnHand: onHand, OnOrder: onOrder}
}

func TestSalesVelocity(t *testing.T) {
	sales := []domain.SalesRow{
		{SKU: "P1", Period: "2026-03", Quantity: 90},
		{SKU: "P1", Period: "2026-04", Quantity: 90},
		{SKU: "p1 ", Period: "2026-05", Quantity: 180}, // same SKU, messy form
	}
	vel := SalesVelocity(sales, 6)

	require.Contains(t, vel, "P1")
	assert.InDelta(t, 60.0, vel["P1"].AvgMonthly, 1e-9)
	assert.InDelta(t, 2.0, vel["P1"].AvgDaily, 1e-9)
}

func TestEligibleParents(t *testing.T) {
	inventory := []domain.InventoryRow{
		{SKU: "KIT-1", AssemblyBOM: true},
		{SKU: "KIT-2", AssemblyBOM: true, AutoAssemble: true},
		{SKU: "KIT-3", AssemblyBOM: true, AutoDisassemble: true},
		{SKU: "KIT-4", AssemblyBOM: false},
		{SKU: "KIT-5", AssemblyBOM: true}, // not in BOM table
		{SKU: "KIT-6", AssemblyBOM: true}, // on skip list
	}
	bom := []domain.BOMRow{
		{ParentSKU: "KIT-1", ComponentSKU: "C1", QtyPerUnit: 1},
		{ParentSKU: "KIT-2", ComponentSKU: "C1", QtyPerUnit: 1},
		{ParentSKU: "KIT-3", ComponentSKU: "C1", QtyPerUnit: 1},
		{ParentSKU: "KIT-6", ComponentSKU: "C1", QtyPerUnit: 1},
	}

	eng := newTestAssemblyEngine()
	eng.SkipSKUs["KIT-6"] = true

	assert.Equal(t, []string{"KIT-1"}, eng.EligibleParents(inventory, bom))
}

func TestAnalyze_StatusBoundary(t *testing.T) {
	bom := []domain.BOMRow{
		{ParentSKU: "KIT-1", ParentName: "Kit One", ComponentSKU: "C1", ComponentName: "Comp", QtyPerUnit: 2},
	}
	targets := map[string]float64{"KIT-1": 5} // needs 10 units of C1

	// exactly enough on hand: boundary counts as unbuildable
	stock := AggregateStock([]domain.AvailabilityRow{availRow("C1", "NC - Main", 10, 0)})
	orders := newTestAssemblyEngine().Analyze(bom, stock, targets, nil)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.StatusCannotAssemble, orders[0].Status)

	// one unit over the line
	stock = AggregateStock([]domain.AvailabilityRow{availRow("C1", "NC - Main", 11, 0)})
	orders = newTestAssemblyEngine().Analyze(bom, stock, targets, nil)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.StatusReadyForProduction, orders[0].Status)
	assert.Equal(t, 1, orders[0].ReadyComponents)
}

func TestAnalyze_SkipsZeroTargets(t *testing.T) {
	bom := []domain.BOMRow{
		{ParentSKU: "KIT-1", ComponentSKU: "C1", QtyPerUnit: 1},
		{ParentSKU: "KIT-2", ComponentSKU: "C1", QtyPerUnit: 1},
	}
	stock := AggregateStock([]domain.AvailabilityRow{availRow("C1", "NC - Main", 50, 0)})

	orders := newTestAssemblyEngine().Analyze(bom, stock, map[string]float64{"KIT-2": 3}, nil)
	require.Len(t, orders, 1)
	assert.Equal(t, "KIT-2", orders[0].SKU)
}

func TestAnalyze_TransferAndAdditionalBuy(t *testing.T) {
	bom := []domain.BOMRow{
		{ParentSKU: "KIT-1", ParentName: "Kit One", ComponentSKU: "C1", ComponentName: "Comp", QtyPerUnit: 1},
	}
	targets := map[string]float64{"KIT-1": 8}

	// donor below the low-stock threshold with less stock than the transfer
	// need: nothing moves and the residual is bought.
	stock := AggregateStock([]domain.AvailabilityRow{
		availRow("C1", "NC - Main", 2, 0),
		availRow("C1", "NC - Armory", 5, 0),
	})
	orders := newTestAssemblyEngine().Analyze(bom, stock, targets, nil)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Components, 1)

	comp := orders[0].Components[0]
	assert.Equal(t, 8.0, comp.QtyNeeded)
	assert.Equal(t, 8.0, comp.TransferNeeded) // max(needed, donor position)
	assert.Equal(t, 0.0, comp.FinalTransfer)  // 8 >= donor on hand of 5
	assert.Equal(t, 8.0, comp.AdditionalBuy)  // donor 5 <= residual 8
	assert.Equal(t, 1.0, comp.Shortage)       // needed 8 vs 7 available
}

func TestComponentReplenishments(t *testing.T) {
	bom := []domain.BOMRow{
		{ParentSKU: "KIT-1", ComponentSKU: "C1", ComponentName: "Comp A", QtyPerUnit: 1},
		{ParentSKU: "KIT-1", ComponentSKU: "C2", ComponentName: "Comp B", QtyPerUnit: 2},
		// SUB-1 is itself assembled, so it is built rather than bought
		{ParentSKU: "KIT-1", ComponentSKU: "SUB-1", QtyPerUnit: 1},
		{ParentSKU: "SUB-1", ComponentSKU: "C3", ComponentName: "Comp C", QtyPerUnit: 1},
	}
	stock := AggregateStock([]domain.AvailabilityRow{
		availRow("C1", "NC - Main", 10, 0),
		availRow("C2", "NC - Main", 0, 0),
	})
	velocities := map[string]Velocity{
		"C1": {AvgDaily: 1},   // 30-day need 30, have 10 -> 20
		"C2": {AvgDaily: 0.5}, // need 15, have 0 -> 15
		// C3 has no sales history: 0-day need with 0 stock -> minimum of 1
	}

	out := newTestAssemblyEngine().ComponentReplenishments(bom, stock, velocities)
	require.Len(t, out, 3)

	bySKU := make(map[string]domain.ComponentReplenishment)
	for _, r := range out {
		bySKU[r.SKU] = r
	}
	assert.Equal(t, 20, bySKU["C1"].Quantity)
	assert.Equal(t, 15, bySKU["C2"].Quantity)
	assert.Equal(t, 1, bySKU["C3"].Quantity)
	assert.NotContains(t, bySKU, "SUB-1")
}

func TestComponentReplenishments_MinimumOrderOverride(t *testing.T) {
	bom := []domain.BOMRow{{ParentSKU: "KIT-1", ComponentSKU: "C1", QtyPerUnit: 1}}
	stock := AggregateStock(nil)

	// zero velocity over 5 days of cover with nothing in stock still orders 1
	eng := newTestAssemblyEngine()
	eng.DaysOfStock = 5
	out := eng.ComponentReplenishments(bom, stock, map[string]Velocity{"C1": {AvgDaily: 0}})
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].Quantity)
}

func TestTransferRecommendations(t *testing.T) {
	bom := []domain.BOMRow{{ParentSKU: "KIT-1", ComponentSKU: "COMP-1", QtyPerUnit: 1}}
	stock := AggregateStock([]domain.AvailabilityRow{
		// donor 50, main 5: move min(30, 15) = 15
		availRow("A1", "NC - Armory", 50, 0),
		availRow("A1", "NC - Main", 5, 0),
		// donor at the threshold exactly: no transfer
		availRow("A2", "NC - Armory", 20, 0),
		availRow("A2", "NC - Main", 0, 0),
		// BOM component: excluded even when overstocked
		availRow("COMP-1", "NC - Armory", 100, 0),
		availRow("COMP-1", "NC - Main", 0, 0),
		// main already stocked: no transfer
		availRow("A3", "NC - Armory", 60, 0),
		availRow("A3", "NC - Main", 25, 0),
	})

	out := newTestAssemblyEngine().TransferRecommendations(stock, bom)
	require.Len(t, out, 1)
	assert.Equal(t, "A1", out[0].SKU)
	assert.Equal(t, "NC - Armory", out[0].FromLocation)
	assert.Equal(t, "NC - Main", out[0].ToLocation)
	assert.Equal(t, 15.0, out[0].Quantity)
}

func TestDeriveBuildTargets(t *testing.T) {
	stock := AggregateStock([]domain.AvailabilityRow{
		availRow("KIT-1", "NC - Main", 5, 0),
		availRow("KIT-2", "NC - Main", 100, 0),
	})
	velocities := map[string]Velocity{
		"KIT-1": {AvgDaily: 1, AvgMonthly: 30}, // short 25 -> build 25
		"KIT-2": {AvgDaily: 1, AvgMonthly: 30}, // fully covered
	}

	targets := newTestAssemblyEngine().DeriveBuildTargets([]string{"KIT-1", "KIT-2"}, stock, velocities)
	require.Contains(t, targets, "KIT-1")
	assert.Equal(t, 25.0, targets["KIT-1"])
	assert.NotContains(t, targets, "KIT-2")
}

func TestDeriveBuildTargets_Bounds(t *testing.T) {
	stock := AggregateStock([]domain.AvailabilityRow{
		availRow("KIT-1", "NC - Main", 29, 0),
	})
	// shortfall of 1 is lifted to the 2-unit minimum
	velocities := map[string]Velocity{"KIT-1": {AvgDaily: 1, AvgMonthly: 30}}
	targets := newTestAssemblyEngine().DeriveBuildTargets([]string{"KIT-1"}, stock, velocities)
	assert.Equal(t, 2.0, targets["KIT-1"])

	// enormous demand hits the absolute cap
	stock = AggregateStock(nil)
	velocities = map[string]Velocity{"KIT-1": {AvgDaily: 100, AvgMonthly: 3000}}
	targets = newTestAssemblyEngine().DeriveBuildTargets([]string{"KIT-1"}, stock, velocities)
	assert.Equal(t, 1000.0, targets["KIT-1"])
}
