package generic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/timesheet-engine/generic"
)

func hours(f float64) generic.Amount { return generic.Hours(f) }

func quantize(f float64) generic.Amount {
	return hours(f).Quantize(generic.HalfHour, generic.Zero(generic.UnitHours), generic.MaxDailyHours)
}

// =============================================================================
// QUANTIZATION TESTS
// =============================================================================

func TestAmount_Quantize_HalfHourSteps(t *testing.T) {
	// GIVEN: Raw hour values as typed
	// WHEN: Quantized to [0, 24] in 0.5 steps
	// THEN: Each lands on the nearest half hour, bounds included

	tests := []struct {
		in   float64
		want string
	}{
		{7.3, "7.5"},
		{7.2, "7.0"},
		{7.25, "7.5"},  // half away from zero
		{7.75, "8.0"},  // half away from zero
		{-2, "0.0"},    // clamped
		{30, "24.0"},   // clamped
		{23.9, "24.0"}, // rounds up to the bound
		{0.2, "0.0"},
		{0.25, "0.5"},
		{8, "8.0"},
	}
	for _, tt := range tests {
		got := quantize(tt.in)
		assert.Equal(t, tt.want, got.StringFixed(1), "quantize(%v)", tt.in)
		assert.Equal(t, generic.UnitHours, got.Unit)
	}
}

func TestAmount_Quantize_ZeroStepOnlyClamps(t *testing.T) {
	got := hours(30.3).Quantize(generic.MustParseDecimal("0"), generic.Zero(generic.UnitHours), generic.MaxDailyHours)
	assert.True(t, got.Equal(generic.MaxDailyHours))

	got = hours(3.3).Quantize(generic.MustParseDecimal("0"), generic.Zero(generic.UnitHours), generic.MaxDailyHours)
	assert.Equal(t, "3.3", got.Value.String())
}

// =============================================================================
// PARSING TESTS
// =============================================================================

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"7.5", "7.5", true},
		{" 8 ", "8", true},
		{"12,50", "12.5", true},
		{"-3", "-3", true},
		{"", "0", false},
		{"   ", "0", false},
		{"abc", "0", false},
		{"NaN", "0", false},
		{"null", "0", false},
		{"1e2000000000", "100000000000000000000", true},
		{"-1e2000000000", "-100000000000000000000", true},
		{"1e-2000000000", "0", true},
	}
	for _, tt := range tests {
		got, ok := generic.ParseAmount(tt.in, generic.UnitDollars)
		assert.Equal(t, tt.wantOK, ok, "ParseAmount(%q)", tt.in)
		assert.Equal(t, tt.want, got.Value.String(), "ParseAmount(%q)", tt.in)
		assert.Equal(t, generic.UnitDollars, got.Unit)
	}
}

func TestMustParseDecimal_GarbageIsZero(t *testing.T) {
	assert.True(t, generic.MustParseDecimal("garbage").IsZero())
	assert.Equal(t, "4.25", generic.MustParseDecimal(" 4.25 ").String())
}

// =============================================================================
// ARITHMETIC TESTS
// =============================================================================

func TestAmount_Arithmetic(t *testing.T) {
	a := hours(7.5)
	b := hours(0.5)

	assert.Equal(t, "8", a.Add(b).Value.String())
	assert.Equal(t, "7", a.Sub(b).Value.String())
	assert.True(t, b.Sub(a).IsNegative())
	assert.True(t, a.GreaterThan(b))
	assert.True(t, b.LessThan(a))
	assert.True(t, a.Min(b).Equal(b))
	assert.True(t, a.Max(b).Equal(a))
	assert.True(t, a.Zero().IsZero())
	assert.Equal(t, generic.UnitHours, a.Zero().Unit)
}

func TestAmount_RoundCents(t *testing.T) {
	assert.Equal(t, "12.35", generic.Dollars(12.345).RoundCents().StringFixed(2))
	assert.Equal(t, "0.10", generic.Dollars(0.1).RoundCents().StringFixed(2))
}

func TestSum_EmptyIsZero(t *testing.T) {
	total := generic.Sum(generic.UnitHours)
	assert.True(t, total.IsZero())

	total = generic.Sum(generic.UnitHours, hours(8), hours(8), hours(0.5))
	assert.Equal(t, "16.5", total.StringFixed(1))
}
