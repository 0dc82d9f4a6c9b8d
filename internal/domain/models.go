package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AvailabilityRow is one raw line of the availability export: a single
// warehouse bin for a SKU. Several rows may map to the same (SKU, Location).
type AvailabilityRow struct {
	SKU         string
	ProductName string
	Location    string // full location name, e.g. "NC - Main"
	OnHand      float64
	OnOrder     float64
	InTransit   float64
}

// InventoryRow comes from the inventory list export and carries supplier and
// assembly metadata for a product.
type InventoryRow struct {
	SKU                 string // ProductCode in the source file
	Name                string
	Supplier            string // LastSuppliedBy
	SupplierProductCode string
	AssemblyBOM         bool
	AutoAssemble        bool
	AutoDisassemble     bool
}

// ReplenishmentRow carries the per-SKU ordering parameters maintained in the
// replenishment report for one warehouse region.
type ReplenishmentRow struct {
	SKU            string
	Name           string
	LeadTimeDays   float64
	VelocityPerDay float64 // baseline adjusted sales velocity, units/day
	CostPrice      decimal.Decimal
}

// SalesRow is one (SKU, period) slice of the sales history window.
type SalesRow struct {
	SKU      string
	Period   string // e.g. "2026-03"
	Sales    decimal.Decimal
	COGS     decimal.Decimal
	Profit   decimal.Decimal
	Quantity float64
}

// BOMRow relates an assembled parent SKU to one of its components.
type BOMRow struct {
	ParentSKU     string
	ParentName    string
	ComponentSKU  string
	ComponentName string
	QtyPerUnit    float64
}

// POLine is one row of the purchase-order import file handed to the report
// writer.
type POLine struct {
	RecordType           string // always "Order"
	Supplier             string
	SupplierProductCode  string
	SKU                  string
	ProductName          string
	Quantity             int
	UnitCost             decimal.Decimal
	LeadTimeDays         float64
	AdjustedMonthlySales float64
}

// AssemblyStatus is the feasibility verdict for building a parent SKU from
// component stock on hand. There are no intermediate states.
type AssemblyStatus string

const (
	StatusReadyForProduction AssemblyStatus = "Ready for Production"
	StatusCannotAssemble     AssemblyStatus = "Cannot Assemble"
)

// ComponentRequirement is the per-component breakdown behind an assembly
// decision, including the transfer and residual-purchase quantities for the
// donor location.
type ComponentRequirement struct {
	SKU            string
	Name           string
	QtyPerUnit     float64
	QtyNeeded      float64
	Available      float64 // on hand + on order + in transit, assembly locations
	OnHand         float64
	Shortage       float64
	TransferNeeded float64
	FinalTransfer  float64
	AdditionalBuy  float64
}

// AssemblyOrder is the decision record for one assembled SKU.
type AssemblyOrder struct {
	SKU             string
	Name            string
	BuildQty        float64
	Status          AssemblyStatus
	AvgDailySales   float64
	AvgMonthlySales float64
	AvailableTotal  float64
	Components      []ComponentRequirement
	ReadyComponents int
}

// ComponentReplenishment is the velocity-based order for a component SKU that
// is bought rather than assembled. Quantity carries this sub-flow's minimum
// order of 1.
type ComponentReplenishment struct {
	SKU           string
	Name          string
	AvgDailySales float64
	CurrentTotal  float64
	Quantity      int
}

// TransferRecommendation moves overstock from a donor location to the primary
// fulfillment location before any purchasing happens.
type TransferRecommendation struct {
	SKU          string
	ProductName  string
	FromLocation string
	ToLocation   string
	DonorOnHand  float64
	MainOnHand   float64
	Quantity     float64
}

// RunStatus tracks the lifecycle of a replenishment run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is the persisted record of one replenishment run for a location.
type Run struct {
	ID           int64      `db:"id"`
	Location     string     `db:"location"`
	Status       RunStatus  `db:"status"`
	TotalSKUs    int        `db:"total_skus"`
	POLines      int        `db:"po_lines"`
	Assemblies   int        `db:"assemblies"`
	Transfers    int        `db:"transfers"`
	Excluded     int        `db:"excluded"`
	OutputFile   string     `db:"output_file"`
	ErrorMessage string     `db:"error_message"`
	StartedAt    time.Time  `db:"started_at"`
	CompletedAt  *time.Time `db:"completed_at"`
}
