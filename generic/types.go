/*
Package generic provides the domain-agnostic building blocks of the timesheet engine.

PURPOSE:
  This package contains the value types and plumbing the timesheet domain is built
  on: decimal quantities with a unit, calendar days, holiday lookups, pay periods,
  a typed synchronous event bus and the shared error taxonomy. It knows nothing
  about hour types, roles or workflow statuses.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 7.5 hours, $42.10)
  - Quantization: clamping to a range and snapping to a step (hour entry rules)
  - Formatting: fixed decimal rendering for totals

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so 0.5-hour steps and cents never drift
  2. No NaN: Invalid input becomes zero or "empty", never a poisoned total
  3. Type Safety: Units travel with values

USAGE:
  h := generic.NewAmount(7.3, generic.UnitHours).Quantize(generic.HalfHour, generic.Zero(generic.UnitHours), generic.MaxDailyHours)
  h.StringFixed(1) // "7.5"

SEE ALSO:
  - time.go: TimePoint, Day, holiday calendar
  - period.go: Pay periods
  - events.go: Typed event bus
  - errors.go: Sentinel and structured errors
*/
package generic

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitHours   Unit = "hours"
	UnitDollars Unit = "dollars"
)

var (
	// HalfHour is the entry granularity of the grid.
	HalfHour = decimal.NewFromFloat(0.5)

	// MaxDailyHours is the largest value a single day cell may hold.
	MaxDailyHours = NewAmountFromInt(24, UnitHours)
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

func NewAmountFromDecimal(value decimal.Decimal, unit Unit) Amount {
	return Amount{Value: value, Unit: unit}
}

func Zero(unit Unit) Amount {
	return Amount{Value: decimal.Zero, Unit: unit}
}

func Hours(value float64) Amount   { return NewAmount(value, UnitHours) }
func Dollars(value float64) Amount { return NewAmount(value, UnitDollars) }

// ParseAmount parses user input such as "7.5", " 8 " or "12,50".
// The second return is false when the input is blank or not a number.
func ParseAmount(s string, unit Unit) (Amount, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero(unit), false
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero(unit), false
	}
	return Amount{Value: Bound(d), Unit: unit}, true
}

// MustParseDecimal returns zero for anything that is not a number.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return Bound(d)
}

// maxDigits limits parsed quantities to |d| < 10^maxDigits with at most
// maxDigits decimal places.
const maxDigits = 20

var maxMagnitude = decimal.New(1, maxDigits)

// Bound caps the magnitude of d using only its exponent and digit count.
// Rescaling an input such as "1e2000000000" would otherwise build a
// 10^2000000000 coefficient.
func Bound(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return decimal.Zero
	}
	exp := int64(d.Exponent())
	magnitude := int64(d.NumDigits()) + exp
	switch {
	case magnitude > maxDigits:
		if d.Sign() < 0 {
			return maxMagnitude.Neg()
		}
		return maxMagnitude
	case magnitude < -maxDigits:
		return decimal.Zero
	case exp < -maxDigits:
		return d.Truncate(maxDigits)
	}
	return d
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }

func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Clamp bounds the amount to [lo, hi].
func (a Amount) Clamp(lo, hi Amount) Amount {
	return a.Max(lo).Min(hi)
}

// Quantize clamps to [lo, hi] and then rounds to the nearest multiple of step,
// half away from zero. Clamping happens first so an out-of-range value lands
// exactly on a bound.
func (a Amount) Quantize(step decimal.Decimal, lo, hi Amount) Amount {
	a.Value = Bound(a.Value)
	c := a.Clamp(lo, hi)
	if step.IsZero() {
		return c
	}
	q := c.Value.Div(step).Round(0).Mul(step)
	return Amount{Value: q, Unit: a.Unit}.Clamp(lo, hi)
}

// RoundCents rounds a money amount to two decimal places.
func (a Amount) RoundCents() Amount {
	return Amount{Value: Bound(a.Value).Round(2), Unit: a.Unit}
}

// StringFixed renders the value with exactly places decimals ("16.0").
func (a Amount) StringFixed(places int32) string {
	return a.Value.StringFixed(places)
}

func (a Amount) String() string {
	return a.Value.String() + " " + string(a.Unit)
}

// Sum adds amounts of the given unit; an empty list sums to zero.
func Sum(unit Unit, amounts ...Amount) Amount {
	total := Zero(unit)
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
