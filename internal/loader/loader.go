// Package loader maps Cin7 Core export files onto the canonical input tables
// the calculation engine consumes. Column detection is tolerant: headers are
// matched after lowercasing and stripping separators, so "On Hand", "OnHand"
// and "on_hand" all resolve to the same field. Missing required columns abort
// the load with a MissingColumnError.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/renatond/dbi-replenishment/internal/domain"
	"github.com/renatond/dbi-replenishment/internal/engine"
)

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "", "*", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// csvTable is a fully read CSV file with header-based column lookup.
type csvTable struct {
	name   string
	header []string
	rows   [][]string
}

func readCSV(path, tableName string) (*csvTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file: %w", tableName, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	// SKU cells exported from Excel arrive as ="0042", a bare quote in an
	// unquoted field
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s header: %w", tableName, err)
	}

	t := &csvTable{name: tableName, header: header}
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read %s row: %w", tableName, err)
		}
		t.rows = append(t.rows, record)
	}
	return t, nil
}

// colIndex resolves the first header matching any of the given names, -1 when
// none does.
func (t *csvTable) colIndex(names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, h := range t.header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

// requireCol is colIndex for mandatory columns: absence is fatal for the run.
func (t *csvTable) requireCol(names ...string) (int, error) {
	if idx := t.colIndex(names...); idx >= 0 {
		return idx, nil
	}
	return -1, engine.NewMissingColumnError(t.name, names[0])
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func cellFloat(record []string, idx int) float64 {
	return engine.ParseNumber(cell(record, idx))
}

func cellDecimal(record []string, idx int) decimal.Decimal {
	v := cell(record, idx)
	v = strings.ReplaceAll(v, ",", "")
	v = strings.TrimPrefix(v, "$")
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func cellYes(record []string, idx int) bool {
	return strings.EqualFold(cell(record, idx), "yes")
}

// LoadAvailability reads an AvailabilityReport export: one row per warehouse
// bin with the SKU's stock position at that location.
func LoadAvailability(path string) ([]domain.AvailabilityRow, error) {
	t, err := readCSV(path, "availability report")
	if err != nil {
		return nil, err
	}

	idxSKU, err := t.requireCol("SKU")
	if err != nil {
		return nil, err
	}
	idxLocation, err := t.requireCol("Location")
	if err != nil {
		return nil, err
	}
	idxOnHand, err := t.requireCol("OnHand", "Available")
	if err != nil {
		return nil, err
	}
	idxName := t.colIndex("ProductName", "Name", "Product")
	idxOnOrder := t.colIndex("OnOrder")
	idxInTransit := t.colIndex("InTransit")

	rows := make([]domain.AvailabilityRow, 0, len(t.rows))
	for _, record := range t.rows {
		if cell(record, idxSKU) == "" {
			continue
		}
		rows = append(rows, domain.AvailabilityRow{
			SKU:         cell(record, idxSKU),
			ProductName: cell(record, idxName),
			Location:    cell(record, idxLocation),
			OnHand:      cellFloat(record, idxOnHand),
			OnOrder:     cellFloat(record, idxOnOrder),
			InTransit:   cellFloat(record, idxInTransit),
		})
	}
	return rows, nil
}

// LoadInventory reads an InventoryList export carrying supplier and assembly
// metadata. The assembly flags arrive as YES/NO strings.
func LoadInventory(path string) ([]domain.InventoryRow, error) {
	t, err := readCSV(path, "inventory list")
	if err != nil {
		return nil, err
	}

	idxSKU, err := t.requireCol("ProductCode", "SKU")
	if err != nil {
		return nil, err
	}
	idxSupplier, err := t.requireCol("LastSuppliedBy")
	if err != nil {
		return nil, err
	}
	idxName := t.colIndex("Name", "ProductName")
	idxSupplierCode := t.colIndex("SupplierProductCode")
	idxAssemblyBOM := t.colIndex("AssemblyBOM")
	idxAutoAssemble := t.colIndex("AutoAssemble")
	idxAutoDisassemble := t.colIndex("AutoDisassemble")

	rows := make([]domain.InventoryRow, 0, len(t.rows))
	for _, record := range t.rows {
		if cell(record, idxSKU) == "" {
			continue
		}
		rows = append(rows, domain.InventoryRow{
			SKU:                 cell(record, idxSKU),
			Name:                cell(record, idxName),
			Supplier:            cell(record, idxSupplier),
			SupplierProductCode: cell(record, idxSupplierCode),
			AssemblyBOM:         cellYes(record, idxAssemblyBOM),
			AutoAssemble:        cellYes(record, idxAutoAssemble),
			AutoDisassemble:     cellYes(record, idxAutoDisassemble),
		})
	}
	return rows, nil
}

// LoadReplenishment reads a replenishment-parameters export for one warehouse
// region. SKU cells often carry Excel's ="..." text wrapper; the engine's
// normalizer strips it downstream.
func LoadReplenishment(path string) ([]domain.ReplenishmentRow, error) {
	t, err := readCSV(path, "replenishment report")
	if err != nil {
		return nil, err
	}

	idxSKU, err := t.requireCol("SKU")
	if err != nil {
		return nil, err
	}
	idxLeadTime, err := t.requireCol("Lead time")
	if err != nil {
		return nil, err
	}
	idxVelocity, err := t.requireCol("Adjusted sales velocity/day", "Adjusted sales velocity day")
	if err != nil {
		return nil, err
	}
	idxName := t.colIndex("Name", "ProductName")
	idxCost := t.colIndex("Cost price")

	rows := make([]domain.ReplenishmentRow, 0, len(t.rows))
	for _, record := range t.rows {
		if cell(record, idxSKU) == "" {
			continue
		}
		rows = append(rows, domain.ReplenishmentRow{
			SKU:            cell(record, idxSKU),
			Name:           cell(record, idxName),
			LeadTimeDays:   cellFloat(record, idxLeadTime),
			VelocityPerDay: cellFloat(record, idxVelocity),
			CostPrice:      cellDecimal(record, idxCost),
		})
	}
	return rows, nil
}

// LoadBOM reads a bill-of-materials export relating assembled parent SKUs to
// their components.
func LoadBOM(path string) ([]domain.BOMRow, error) {
	t, err := readCSV(path, "bom report")
	if err != nil {
		return nil, err
	}

	idxParent, err := t.requireCol("Product SKU")
	if err != nil {
		return nil, err
	}
	idxComponent, err := t.requireCol("Component SKU")
	if err != nil {
		return nil, err
	}
	idxQty, err := t.requireCol("Quantity")
	if err != nil {
		return nil, err
	}
	idxParentName := t.colIndex("Product")
	idxComponentName := t.colIndex("Component")

	rows := make([]domain.BOMRow, 0, len(t.rows))
	for _, record := range t.rows {
		if cell(record, idxParent) == "" || cell(record, idxComponent) == "" {
			continue
		}
		rows = append(rows, domain.BOMRow{
			ParentSKU:     cell(record, idxParent),
			ParentName:    cell(record, idxParentName),
			ComponentSKU:  cell(record, idxComponent),
			ComponentName: cell(record, idxComponentName),
			QtyPerUnit:    cellFloat(record, idxQty),
		})
	}
	return rows, nil
}

// salesHeaderRows is the banner block Cin7 prepends to the Sales by Product
// Details report before the real header row.
const salesHeaderRows = 5

// LoadSales reads the combined Sales by Product Details XLSX. The layout is
// one SKU column followed by repeating Sale/Quantity/COGS/Profit groups, one
// group per month of the report window.
func LoadSales(path string) ([]domain.SalesRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sales report: %w", err)
	}
	defer f.Close()

	sheet := "Sheet"
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("sales report has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sales report: %w", err)
	}
	if len(rows) <= salesHeaderRows {
		return nil, engine.NewMissingColumnError("sales report", "SKU")
	}

	header := rows[salesHeaderRows]
	if len(header) < 2 {
		return nil, engine.NewMissingColumnError("sales report", "Sale")
	}

	rowCell := func(row []string, idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var out []domain.SalesRow
	for _, row := range rows[salesHeaderRows+1:] {
		sku := rowCell(row, 0)
		if sku == "" {
			continue
		}
		for i := 1; i < len(header); i += 4 {
			period := rowCell(header, i)
			if strings.HasPrefix(period, "Total") || strings.HasPrefix(period, "Average") {
				continue
			}
			out = append(out, domain.SalesRow{
				SKU:      sku,
				Period:   period,
				Sales:    cellDecimal(row, i),
				Quantity: cellFloat(row, i+1),
				COGS:     cellDecimal(row, i+2),
				Profit:   cellDecimal(row, i+3),
			})
		}
	}
	return out, nil
}
