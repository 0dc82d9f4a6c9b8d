package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/renatond/dbi-replenishment/internal/engine"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAvailability(t *testing.T) {
	path := writeFile(t, "AvailabilityReport_1.csv",
		"SKU,ProductName,Location,OnHand,OnOrder,InTransit\n"+
			"ABC123,Widget,NC - Main,15,5,0\n"+
			"ABC123,Widget,NC - Armory,30,,\n"+
			",,NC - Main,1,0,0\n")

	rows, err := LoadAvailability(path)
	require.NoError(t, err)
	require.Len(t, rows, 2) // blank SKU dropped

	assert.Equal(t, "ABC123", rows[0].SKU)
	assert.Equal(t, "NC - Main", rows[0].Location)
	assert.Equal(t, 15.0, rows[0].OnHand)
	assert.Equal(t, 5.0, rows[0].OnOrder)
	assert.Equal(t, 0.0, rows[1].OnOrder) // empty cell
}

func TestLoadAvailability_AvailableAlias(t *testing.T) {
	path := writeFile(t, "avail.csv",
		"SKU,Location,Available,OnOrder\nABC123,NC - Main,12,3\n")

	rows, err := LoadAvailability(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 12.0, rows[0].OnHand)
}

func TestLoadAvailability_MissingColumn(t *testing.T) {
	path := writeFile(t, "avail.csv", "SKU,OnHand\nABC123,5\n")

	_, err := LoadAvailability(path)
	var missing *engine.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "availability report", missing.Table)
	assert.Equal(t, "Location", missing.Column)
}

func TestLoadInventory(t *testing.T) {
	path := writeFile(t, "InventoryList_1.csv",
		"ProductCode,Name,LastSuppliedBy,SupplierProductCode,AssemblyBOM,AutoAssemble,AutoDisassemble\n"+
			"KIT-1,Kit One,Acme Corp,AC-9,YES,NO,no\n"+
			"ABC123,Widget,Acme Corp,AC-1,NO,NO,NO\n")

	rows, err := LoadInventory(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "KIT-1", rows[0].SKU)
	assert.Equal(t, "Acme Corp", rows[0].Supplier)
	assert.True(t, rows[0].AssemblyBOM)
	assert.False(t, rows[0].AutoAssemble)
	assert.False(t, rows[0].AutoDisassemble)
	assert.False(t, rows[1].AssemblyBOM)
}

func TestLoadReplenishment(t *testing.T) {
	path := writeFile(t, "replenishment-Combined NC Warehouses-variants-1.csv",
		"SKU,Name,Lead time,Adjusted sales velocity/day,Cost price\n"+
			"=\"0042\",Widget,7,2,\"$1,250.50\"\n")

	rows, err := LoadReplenishment(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// the ="..." wrapper stays raw here, normalization happens downstream
	assert.Equal(t, `="0042"`, rows[0].SKU)
	assert.Equal(t, "0042", engine.NormalizeSKU(rows[0].SKU))
	assert.Equal(t, 7.0, rows[0].LeadTimeDays)
	assert.Equal(t, 2.0, rows[0].VelocityPerDay)
	assert.Equal(t, "1250.50", rows[0].CostPrice.StringFixed(2))
}

func TestLoadReplenishment_MissingVelocity(t *testing.T) {
	path := writeFile(t, "repl.csv", "SKU,Lead time\nABC123,7\n")

	_, err := LoadReplenishment(path)
	var missing *engine.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "replenishment report", missing.Table)
}

func TestLoadBOM(t *testing.T) {
	path := writeFile(t, "bom.csv",
		"Product SKU,Product,Component SKU,Component,Quantity\n"+
			"KIT-1,Kit One,C1,Comp A,2\n"+
			"KIT-1,Kit One,,Comp B,1\n")

	rows, err := LoadBOM(path)
	require.NoError(t, err)
	require.Len(t, rows, 1) // blank component dropped

	assert.Equal(t, "KIT-1", rows[0].ParentSKU)
	assert.Equal(t, "C1", rows[0].ComponentSKU)
	assert.Equal(t, 2.0, rows[0].QtyPerUnit)
}

func TestLoadSales(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Sales by Product Details Report.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Sheet"))
	// banner rows 1-5, header on row 6, spacer on row 7, data from row 8
	require.NoError(t, f.SetSheetRow("Sheet", "A1", &[]interface{}{"Sales by Product Details Report"}))
	require.NoError(t, f.SetSheetRow("Sheet", "A6", &[]interface{}{
		"SKU", "Mar 2026", "", "", "", "Apr 2026", "", "", "",
	}))
	require.NoError(t, f.SetSheetRow("Sheet", "A8", &[]interface{}{
		"ABC123", 1000, 60, 700, 300, 500, 30, 350, 150,
	}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	rows, err := LoadSales(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "ABC123", rows[0].SKU)
	assert.Equal(t, "Mar 2026", rows[0].Period)
	assert.Equal(t, "1000", rows[0].Sales.String())
	assert.Equal(t, 60.0, rows[0].Quantity)
	assert.Equal(t, "700", rows[0].COGS.String())
	assert.Equal(t, "300", rows[0].Profit.String())

	assert.Equal(t, "Apr 2026", rows[1].Period)
	assert.Equal(t, "150", rows[1].Profit.String())
}

func TestLoadSales_TooShort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"empty"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := LoadSales(path)
	var missing *engine.MissingColumnError
	assert.True(t, errors.As(err, &missing))
}
