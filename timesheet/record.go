package timesheet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// INBOUND RECORD - Shape supplied by the persistence layer
// =============================================================================

// Record is a stored timesheet as handed to LoadTimesheet.
type Record struct {
	ID                 string        `json:"id,omitempty"`
	WeekStart          string        `json:"week_start" validate:"required,datetime=2006-01-02,sunday"`
	Status             Status        `json:"status" validate:"omitempty,oneof=NEW SUBMITTED NEEDS_APPROVAL APPROVED"`
	PayPeriodConfirmed bool          `json:"pay_period_confirmed"`
	Entries            []RecordEntry `json:"entries" validate:"dive"`
	ReimbursementItems []RecordItem  `json:"reimbursement_items" validate:"dive"`
}

// RecordEntry is one hour type row with its seven day values.
type RecordEntry struct {
	HourType HourType    `json:"hour_type" validate:"required"`
	Sun      LooseNumber `json:"sun"`
	Mon      LooseNumber `json:"mon"`
	Tue      LooseNumber `json:"tue"`
	Wed      LooseNumber `json:"wed"`
	Thu      LooseNumber `json:"thu"`
	Fri      LooseNumber `json:"fri"`
	Sat      LooseNumber `json:"sat"`
}

// RecordItem is a stored reimbursement line.
type RecordItem struct {
	ID          string      `json:"id"`
	Description string      `json:"description" validate:"max=200"`
	Amount      LooseNumber `json:"amount"`
	Category    string      `json:"category"`
	Date        string      `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Days returns the entry's values in Sunday..Saturday order.
func (e RecordEntry) Days() [generic.DaysPerWeek]LooseNumber {
	return [generic.DaysPerWeek]LooseNumber{e.Sun, e.Mon, e.Tue, e.Wed, e.Thu, e.Fri, e.Sat}
}

// =============================================================================
// LOOSE NUMBER - Coercing JSON number
// =============================================================================

// LooseNumber accepts a JSON number, a numeric string, null, or garbage.
// Anything that is not a number decodes as "absent" instead of failing, so a
// bad stored amount can never surface as NaN or a literal "null".
type LooseNumber struct {
	Value decimal.Decimal
	Valid bool
}

func Number(v float64) LooseNumber {
	return LooseNumber{Value: decimal.NewFromFloat(v), Valid: true}
}

func (n *LooseNumber) UnmarshalJSON(data []byte) error {
	*n = LooseNumber{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil
	}
	var s string
	switch v := raw.(type) {
	case json.Number:
		s = v.String()
	case string:
		s = strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
	default:
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	n.Value, n.Valid = generic.Bound(d), true
	return nil
}

func (n LooseNumber) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(n.Value.String()), nil
}

// OrZero returns the value, or zero when absent.
func (n LooseNumber) OrZero() decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	return n.Value
}

// =============================================================================
// OUTBOUND COLLECTED ENTRY - Shape produced for persistence
// =============================================================================

// CollectedEntry is one exported row; only rows with a positive day are collected.
type CollectedEntry struct {
	HourType HourType `json:"hour_type"`
	Sun      float64  `json:"sun"`
	Mon      float64  `json:"mon"`
	Tue      float64  `json:"tue"`
	Wed      float64  `json:"wed"`
	Thu      float64  `json:"thu"`
	Fri      float64  `json:"fri"`
	Sat      float64  `json:"sat"`
}

func newCollectedEntry(ht HourType, row Row) CollectedEntry {
	v := func(d generic.Weekday) float64 { return row[d].Value().Value.InexactFloat64() }
	return CollectedEntry{
		HourType: ht,
		Sun:      v(generic.Sunday),
		Mon:      v(generic.Monday),
		Tue:      v(generic.Tuesday),
		Wed:      v(generic.Wednesday),
		Thu:      v(generic.Thursday),
		Fri:      v(generic.Friday),
		Sat:      v(generic.Saturday),
	}
}

// ToRecordEntry converts an exported row back into the inbound shape.
func (c CollectedEntry) ToRecordEntry() RecordEntry {
	return RecordEntry{
		HourType: c.HourType,
		Sun:      Number(c.Sun),
		Mon:      Number(c.Mon),
		Tue:      Number(c.Tue),
		Wed:      Number(c.Wed),
		Thu:      Number(c.Thu),
		Fri:      Number(c.Fri),
		Sat:      Number(c.Sat),
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("sunday", func(fl validator.FieldLevel) bool {
		tp, err := generic.ParseDate(fl.Field().String())
		return err == nil && tp.IsSunday()
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateRecord checks the structural rules of an inbound record and returns
// a *generic.MalformedRecordError listing every problem.
func ValidateRecord(r Record) error {
	var problems []string
	if err := validate.Struct(r); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return &generic.MalformedRecordError{Problems: []string{err.Error()}}
		}
		for _, fe := range verrs {
			problems = append(problems, describeFieldError(fe))
		}
	}
	seen := make(map[HourType]bool, len(r.Entries))
	for _, e := range r.Entries {
		if e.HourType == "" {
			continue
		}
		if seen[e.HourType] {
			problems = append(problems, fmt.Sprintf("entries: duplicate hour_type %q", e.HourType))
		}
		seen[e.HourType] = true
	}
	if len(problems) > 0 {
		return &generic.MalformedRecordError{Problems: problems}
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + ": required"
	case "datetime":
		return field + ": must be a YYYY-MM-DD date"
	case "sunday":
		return field + ": must be a Sunday"
	case "oneof":
		return field + ": must be one of " + fe.Param()
	case "max":
		return field + ": must be at most " + fe.Param() + " characters"
	}
	return field + ": failed " + fe.Tag()
}
