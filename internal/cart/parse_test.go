package cart

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuantity(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"1":              1,
		"42":             42,
		"  7":            7,
		"\t9\n":          9,
		"3.7":            3,
		"12abc":          12,
		"+4":             4,
		"-5":             1,
		"0":              1,
		"":               1,
		"abc":            1,
		"-":              1,
		"99999999999999": MaxQuantity,
		"2147483647":     MaxQuantity,
		"2147483646":     MaxQuantity - 1,
		"2147483648":     MaxQuantity,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseQuantity(raw), "raw %q", raw)
	}
}

func TestParseQuantitySaturatesLongDigitRuns(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MaxQuantity, ParseQuantity(strings.Repeat("9", 400)+"x"))
	assert.Equal(t, MaxQuantity, ParseQuantity("000"+strings.Repeat("1", 40)))
	assert.Equal(t, 12, ParseQuantity("0000000000000000000000012"))
}

func TestCoerceQuantity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, CoerceQuantity(0))
	assert.Equal(t, 1, CoerceQuantity(-10))
	assert.Equal(t, 5, CoerceQuantity(5))
	assert.Equal(t, MaxQuantity, CoerceQuantity(MaxQuantity+1))
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"10":       "10",
		"10.50":    "10.5",
		"  3.25xx": "3.25",
		"10,50":    "10.5",
		".5":       "0.5",
		"-.5":      "-0.5",
		"5.":       "5",
		"1e2":      "100",
		"2e":       "2",
		"-3":       "-3",
		"":         "0",
		"abc":      "0",
		".":        "0",
		"R$ 10":    "0",
		"1.234,56": "1.234",
	}
	for raw, want := range cases {
		got := ParseAmount(raw)
		assert.True(t, got.Equal(dec(want)), "raw %q got %s want %s", raw, got, want)
	}
}

func TestLookupAmountReportsPresence(t *testing.T) {
	t.Parallel()

	d, ok := LookupAmount("0")
	assert.True(t, ok)
	assert.True(t, d.IsZero())

	_, ok = LookupAmount("")
	assert.False(t, ok)
	_, ok = LookupAmount("n/a")
	assert.False(t, ok)

	d, ok = LookupAmount("19,9")
	assert.True(t, ok)
	assert.True(t, d.Equal(dec("19.9")))
}
