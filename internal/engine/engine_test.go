package engine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renatond/dbi-replenishment/internal/domain"
)

func pipelineInputs() Inputs {
	return Inputs{
		Availability: []domain.AvailabilityRow{
			{SKU: "ABC123", ProductName: "Widget", Location: "NC - Main", OnHand: 15, OnOrder: 5},
			{SKU: "ABC123", ProductName: "Widget", Location: "NC - Armory", OnHand: 30},
			{SKU: "DEF456", ProductName: "Gadget", Location: "NC - Main", OnHand: 15},
		},
		Inventory: []domain.InventoryRow{
			{SKU: "ABC123", Name: "Widget", Supplier: "Acme Corp", SupplierProductCode: "AC-1"},
			{SKU: "DEF456", Name: "Gadget", Supplier: "Acme Corp", SupplierProductCode: "AC-2"},
		},
		Replenishment: []domain.ReplenishmentRow{
			{SKU: "ABC123", Name: "Widget", LeadTimeDays: 7, VelocityPerDay: 2, CostPrice: decimal.NewFromInt(50)},
			{SKU: "DEF456", Name: "Gadget", LeadTimeDays: 7, VelocityPerDay: 2, CostPrice: decimal.NewFromInt(50)},
		},
		Sales: []domain.SalesRow{
			// 30% margin keeps the velocity adjustment neutral at this price
			{SKU: "ABC123", Period: "2026-07", Sales: decimal.NewFromInt(1000), Profit: decimal.NewFromInt(300), Quantity: 60},
			{SKU: "DEF456", Period: "2026-07", Sales: decimal.NewFromInt(500), Profit: decimal.NewFromInt(150), Quantity: 30},
		},
	}
}

func TestEngineRun_Aggregated(t *testing.T) {
	result, err := New().Run(context.Background(), pipelineInputs(), Options{
		AssemblyLocations: []string{"NC - Main", "NC - Armory"},
		DonorLocation:     "NC - Armory",
		PrimaryLocation:   "NC - Main",
	})
	require.NoError(t, err)
	require.Len(t, result.Records, 2)

	// ABC123 across all locations: target 20 vs position 50
	abc := findRecord(t, result.Records, "ABC123")
	assert.Equal(t, 10.0, abc.DaysOfStock)
	assert.Equal(t, 20.0, abc.TargetStock)
	assert.Equal(t, 0.0, abc.VelocityAdjustment)
	assert.Equal(t, 0, abc.POQuantity)

	// DEF456 has only 15 on hand against the same 20-unit target
	def := findRecord(t, result.Records, "DEF456")
	assert.Equal(t, 5, def.POQuantity)

	require.Len(t, result.POLines, 1)
	line := result.POLines[0]
	assert.Equal(t, "Order", line.RecordType)
	assert.Equal(t, "DEF456", line.SKU)
	assert.Equal(t, "Acme Corp", line.Supplier)
	assert.Equal(t, 5, line.Quantity)
	assert.Equal(t, 60.0, line.AdjustedMonthlySales)
}

func TestEngineRun_RegionScoped(t *testing.T) {
	result, err := New().Run(context.Background(), pipelineInputs(), Options{
		Region: "NC - Main",
	})
	require.NoError(t, err)

	// scoped to Main the inbound 5 still covers ABC123's 20-unit target
	abc := findRecord(t, result.Records, "ABC123")
	assert.Equal(t, 15.0, abc.OnHand)
	assert.Equal(t, 5.0, abc.OnOrder)
	assert.Equal(t, 0, abc.POQuantity)
}

func TestEngineRun_ScopedWithoutInbound(t *testing.T) {
	in := pipelineInputs()
	in.Availability[0].OnOrder = 0

	result, err := New().Run(context.Background(), in, Options{Region: "NC - Main"})
	require.NoError(t, err)

	abc := findRecord(t, result.Records, "ABC123")
	assert.Equal(t, 5, abc.POQuantity)
}

func TestEngineRun_ExcludedSupplier(t *testing.T) {
	result, err := New().Run(context.Background(), pipelineInputs(), Options{
		Excluded: mapFilter{"acme corp": true},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.ExcludedCount)
	assert.Empty(t, result.POLines)
}

func TestEngineRun_Deterministic(t *testing.T) {
	opts := Options{
		AssemblyLocations:  []string{"NC - Main", "NC - Armory"},
		DonorLocation:      "NC - Armory",
		PrimaryLocation:    "NC - Main",
		DeriveBuildTargets: true,
	}

	first, err := New().Run(context.Background(), pipelineInputs(), opts)
	require.NoError(t, err)
	second, err := New().Run(context.Background(), pipelineInputs(), opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngineRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Run(ctx, pipelineInputs(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineRun_InvalidTierTable(t *testing.T) {
	_, err := New().Run(context.Background(), pipelineInputs(), Options{
		Tiers: TierTable{{MinPrice: 0, MaxPrice: 100}},
	})
	assert.Error(t, err)
}

func TestEngineRun_AssemblyFlow(t *testing.T) {
	in := pipelineInputs()
	in.Inventory = append(in.Inventory, domain.InventoryRow{SKU: "KIT-1", Name: "Kit One", AssemblyBOM: true})
	in.BOM = []domain.BOMRow{
		{ParentSKU: "KIT-1", ParentName: "Kit One", ComponentSKU: "ABC123", ComponentName: "Widget", QtyPerUnit: 2},
	}

	result, err := New().Run(context.Background(), in, Options{
		AssemblyLocations: []string{"NC - Main", "NC - Armory"},
		DonorLocation:     "NC - Armory",
		PrimaryLocation:   "NC - Main",
		BuildTargets:      map[string]float64{"kit-1": 10},
	})
	require.NoError(t, err)

	require.Len(t, result.Assemblies, 1)
	order := result.Assemblies[0]
	assert.Equal(t, "KIT-1", order.SKU)
	assert.Equal(t, 10.0, order.BuildQty)
	// 45 on hand across assembly locations against 20 needed
	assert.Equal(t, domain.StatusReadyForProduction, order.Status)

	// ABC123 is a BOM component, so it never shows up as a transfer; DEF456
	// lives only at Main. No transfers at all here.
	assert.Empty(t, result.Transfers)
}
