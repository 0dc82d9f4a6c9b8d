package engine

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/renatond/dbi-replenishment/internal/domain"
	"github.com/renatond/dbi-replenishment/pkg/logger"
)

// Inputs are the fully materialized tables a run operates on. The loader
// collaborator fills them; the engine never touches files.
type Inputs struct {
	Availability  []domain.AvailabilityRow
	Inventory     []domain.InventoryRow
	Replenishment []domain.ReplenishmentRow
	Sales         []domain.SalesRow
	BOM           []domain.BOMRow
}

// Options parameterize a run. Everything here is explicit input: the engine
// keeps no state between runs.
type Options struct {
	// Region scopes stock totals to one warehouse region (e.g. "NC"); empty
	// aggregates all locations.
	Region string

	Tiers            TierTable
	Excluded         SupplierFilter
	SafetyBufferDays float64

	// assembly flow
	BuildTargets        map[string]float64 // explicit build quantities per parent SKU
	DeriveBuildTargets  bool               // derive targets for eligible parents lacking one
	AssemblyLocations   []string
	DonorLocation       string
	PrimaryLocation     string
	AssemblyDaysOfStock float64
	SkipAssemblySKUs    []string
	SalesPeriods        int
}

// Result is the complete output of one run, handed to the report-writer
// collaborator. Nothing in it aliases the inputs.
type Result struct {
	Records        []*Record
	POLines        []domain.POLine
	Assemblies     []domain.AssemblyOrder
	Replenishments []domain.ComponentReplenishment
	Transfers      []domain.TransferRecommendation
	ExcludedCount  int
}

// Engine runs the replenishment pipeline: normalize, aggregate, merge,
// adjust velocity, size purchase orders, analyze assemblies and transfers,
// rank profitability, filter excluded suppliers.
type Engine struct {
	log zerolog.Logger
}

// New builds a pipeline engine.
func New() *Engine {
	return &Engine{log: logger.Component("engine")}
}

// Run executes a single pass over the inputs. It is deterministic: identical
// inputs and options produce identical results. The context is consulted
// between stages so a canceled run stops without emitting partial output.
func (e *Engine) Run(ctx context.Context, in Inputs, opts Options) (*Result, error) {
	if opts.Tiers == nil {
		opts.Tiers = DefaultTierTable()
	}
	if err := opts.Tiers.Validate(); err != nil {
		return nil, err
	}

	stock := AggregateStock(in.Availability)
	records := MergeTables(stock, in.Inventory, in.Replenishment, in.Sales, opts.Region)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	AdjustVelocity(records, opts.Tiers)
	NewPOCalculator(opts.SafetyBufferDays).CalculateAll(records)

	asm := NewAssemblyEngine(opts.AssemblyLocations, opts.DonorLocation, opts.PrimaryLocation)
	if opts.AssemblyDaysOfStock > 0 {
		asm.DaysOfStock = opts.AssemblyDaysOfStock
	}
	for _, sku := range opts.SkipAssemblySKUs {
		asm.SkipSKUs[NormalizeSKU(sku)] = true
	}

	velocities := SalesVelocity(in.Sales, opts.SalesPeriods)

	targets := make(map[string]float64, len(opts.BuildTargets))
	for sku, qty := range opts.BuildTargets {
		targets[NormalizeSKU(sku)] = qty
	}
	if opts.DeriveBuildTargets {
		parents := asm.EligibleParents(in.Inventory, in.BOM)
		for sku, qty := range asm.DeriveBuildTargets(parents, stock, velocities) {
			if _, ok := targets[sku]; !ok {
				targets[sku] = qty
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{Records: records}
	result.Assemblies = asm.Analyze(in.BOM, stock, targets, velocities)
	result.Replenishments = asm.ComponentReplenishments(in.BOM, stock, velocities)
	result.Transfers = asm.TransferRecommendations(stock, in.BOM)

	RankABC(records)
	result.ExcludedCount = ApplySupplierFilter(records, opts.Excluded)
	result.POLines = BuildPOLines(records)

	e.log.Info().
		Str("region", opts.Region).
		Int("skus", len(records)).
		Int("po_lines", len(result.POLines)).
		Int("assemblies", len(result.Assemblies)).
		Int("transfers", len(result.Transfers)).
		Int("excluded", result.ExcludedCount).
		Msg("run complete")

	return result, nil
}

// BuildPOLines turns the finished records into purchase-order rows: records
// with no supplier, a zero quantity, or an excluded supplier are dropped, and
// duplicate (supplier, SKU, cost) rows merge with summed quantities.
// AdjustedMonthlySales projects the baseline replenishment velocity over a
// 30-day month.
func BuildPOLines(records []*Record) []domain.POLine {
	type key struct {
		supplier string
		sku      string
		cost     string
	}

	index := make(map[key]int)
	lines := make([]domain.POLine, 0, len(records))

	for _, rec := range records {
		if rec.Supplier == "" || rec.POQuantity <= 0 || rec.Excluded {
			continue
		}
		k := key{
			supplier: strings.ToLower(rec.Supplier),
			sku:      rec.SKU,
			cost:     rec.CostPrice.String(),
		}
		if i, ok := index[k]; ok {
			lines[i].Quantity += rec.POQuantity
			continue
		}
		index[k] = len(lines)
		lines = append(lines, domain.POLine{
			RecordType:           "Order",
			Supplier:             rec.Supplier,
			SupplierProductCode:  rec.SupplierProductCode,
			SKU:                  rec.SKU,
			ProductName:          rec.ProductName,
			Quantity:             rec.POQuantity,
			UnitCost:             rec.CostPrice,
			LeadTimeDays:         rec.LeadTimeDays,
			AdjustedMonthlySales: rec.VelocityPerDay * 30,
		})
	}

	return lines
}
