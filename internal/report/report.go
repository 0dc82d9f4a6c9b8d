// Package report writes run outputs: the Cin7 Core purchase-order import
// file, assembly order sheets, component replenishment orders and transfer
// recommendations.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/renatond/dbi-replenishment/internal/domain"
)

// poImportHeader is the column set Cin7 Core expects on a purchase-order
// import; starred columns are mandatory on their side.
var poImportHeader = []string{
	"RecordType*",
	"SupplierName*",
	"SupplierProductCode",
	"Product*",
	"ProductName",
	"Quantity*",
	"Price/Amount*",
	"Lead time",
	"Adjusted Monthly Sales",
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WritePOImport writes the purchase-order lines as a Cin7 Core import CSV.
func WritePOImport(path string, lines []domain.POLine) error {
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, []string{
			line.RecordType,
			line.Supplier,
			line.SupplierProductCode,
			line.SKU,
			line.ProductName,
			strconv.Itoa(line.Quantity),
			line.UnitCost.String(),
			formatFloat(line.LeadTimeDays),
			formatFloat(line.AdjustedMonthlySales),
		})
	}
	return writeCSV(path, poImportHeader, rows)
}

// WriteAssemblyOrders writes the assembly decisions, one row per component so
// the transfer and residual-buy quantities stay visible per part.
func WriteAssemblyOrders(path string, orders []domain.AssemblyOrder) error {
	header := []string{
		"Assembly SKU",
		"Assembly Name",
		"Build Qty",
		"Status",
		"Avg Daily Sales",
		"Avg Monthly Sales",
		"Available",
		"Ready Components",
		"Component SKU",
		"Component Name",
		"Qty Per Unit",
		"Qty Needed",
		"Component On Hand",
		"Component Available",
		"Shortage",
		"Transfer Needed",
		"Final Transfer",
		"Additional Buy",
	}

	var rows [][]string
	for _, order := range orders {
		for _, comp := range order.Components {
			rows = append(rows, []string{
				order.SKU,
				order.Name,
				formatFloat(order.BuildQty),
				string(order.Status),
				formatFloat(order.AvgDailySales),
				formatFloat(order.AvgMonthlySales),
				formatFloat(order.AvailableTotal),
				strconv.Itoa(order.ReadyComponents),
				comp.SKU,
				comp.Name,
				formatFloat(comp.QtyPerUnit),
				formatFloat(comp.QtyNeeded),
				formatFloat(comp.OnHand),
				formatFloat(comp.Available),
				formatFloat(comp.Shortage),
				formatFloat(comp.TransferNeeded),
				formatFloat(comp.FinalTransfer),
				formatFloat(comp.AdditionalBuy),
			})
		}
	}
	return writeCSV(path, header, rows)
}

// WriteComponentReplenishments writes the velocity-based component orders.
func WriteComponentReplenishments(path string, rows []domain.ComponentReplenishment) error {
	header := []string{"SKU", "Name", "Avg Daily Sales", "Current Total", "Order Qty"}

	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.SKU,
			r.Name,
			formatFloat(r.AvgDailySales),
			formatFloat(r.CurrentTotal),
			strconv.Itoa(r.Quantity),
		})
	}
	return writeCSV(path, header, out)
}

// WriteTransfers writes the donor-to-primary transfer recommendations.
func WriteTransfers(path string, rows []domain.TransferRecommendation) error {
	header := []string{"SKU", "Product Name", "From", "To", "Donor On Hand", "Main On Hand", "Transfer Qty"}

	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.SKU,
			r.ProductName,
			r.FromLocation,
			r.ToLocation,
			formatFloat(r.DonorOnHand),
			formatFloat(r.MainOnHand),
			formatFloat(r.Quantity),
		})
	}
	return writeCSV(path, header, out)
}
