package engine

import (
	"math"
	"strconv"
	"strings"
)

// NormalizeSKU canonicalizes a SKU key so that every representation a source
// file uses for the same product joins to the same record. Spreadsheet
// exports wrap codes in ="..." to stop Excel from eating leading zeros;
// those zeros are significant and kept.
func NormalizeSKU(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, `="`) {
		s = strings.TrimPrefix(s, `="`)
		s = strings.TrimSuffix(s, `"`)
	}
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.Join(strings.Fields(s), " ")
	return strings.ToUpper(s)
}

// ParseNumber coerces a numeric cell to a float64. Missing, malformed and
// NaN values all collapse to 0 so they never travel further as nulls.
func ParseNumber(raw string) float64 {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0
	}
	v = strings.ReplaceAll(v, ",", "")
	v = strings.TrimPrefix(v, "$")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// sanitize replaces NaN/Inf float fields that slipped through an upstream
// computation with 0.
func sanitize(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
