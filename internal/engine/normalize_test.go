package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSKU_EquivalentForms(t *testing.T) {
	forms := []string{
		"abc123",
		" ABC123 ",
		`="ABC123"`,
		`"abc123"`,
		"Abc123",
	}
	for _, form := range forms {
		assert.Equal(t, "ABC123", NormalizeSKU(form), "form %q", form)
	}
}

func TestNormalizeSKU_PreservesLeadingZeros(t *testing.T) {
	assert.Equal(t, "00450", NormalizeSKU(`="00450"`))
	assert.Equal(t, "00450", NormalizeSKU(" 00450 "))
}

func TestNormalizeSKU_CollapsesInnerWhitespace(t *testing.T) {
	assert.Equal(t, "AR 15 KIT", NormalizeSKU("ar  15   kit"))
}

func TestNormalizeSKU_Empty(t *testing.T) {
	assert.Equal(t, "", NormalizeSKU("   "))
}

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{
		"":         0,
		"  ":       0,
		"12":       12,
		"12.5":     12.5,
		"1,234.5":  1234.5,
		"$99.95":   99.95,
		"-3":       -3,
		"not a no": 0,
		"NaN":      0,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseNumber(in), "input %q", in)
	}
}
