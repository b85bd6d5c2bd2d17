package timesheet_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// =============================================================================
// INBOUND DECODING TESTS
// =============================================================================

func TestRecord_DecodeInboundJSON(t *testing.T) {
	payload := `{
		"id": "ts-9",
		"week_start": "2026-01-04",
		"status": "NEEDS_APPROVAL",
		"pay_period_confirmed": false,
		"entries": [
			{"hour_type": "Work", "mon": 8, "tue": "7.5", "wed": null, "thu": "n/a"}
		],
		"reimbursement_items": [
			{"id": "r1", "description": "Gas", "amount": "45.10", "category": "Gas"},
			{"id": "r2", "description": "Broken", "amount": "null", "category": "Other"}
		]
	}`

	var r timesheet.Record
	require.NoError(t, json.Unmarshal([]byte(payload), &r))
	require.NoError(t, timesheet.ValidateRecord(r))

	days := r.Entries[0].Days()
	assert.True(t, days[generic.Monday].Valid)
	assert.Equal(t, "7.5", days[generic.Tuesday].Value.String())
	assert.False(t, days[generic.Wednesday].Valid, "null is absent")
	assert.False(t, days[generic.Thursday].Valid, "garbage is absent")
	assert.False(t, days[generic.Sunday].Valid, "missing is absent")
	assert.False(t, r.ReimbursementItems[1].Amount.Valid)

	store, _ := newTestStore(t)
	require.NoError(t, store.LoadTimesheet(r))
	assert.Equal(t, timesheet.StatusNeedsApproval, store.Status())
	assert.True(t, store.IsEditable())
	assert.Equal(t, "", store.Cell(timesheet.HourTypeWork, generic.Thursday).Display())
	assert.Equal(t, "45.10", timesheet.FormatMoney(store.ReimbursementTotal()))
}

func TestLooseNumber_Marshal(t *testing.T) {
	b, err := json.Marshal(struct {
		A timesheet.LooseNumber `json:"a"`
		B timesheet.LooseNumber `json:"b"`
	}{A: timesheet.Number(7.5)})
	require.NoError(t, err)

	assert.JSONEq(t, `{"a": 7.5, "b": null}`, string(b))
}

func TestLooseNumber_BoundsHugeExponents(t *testing.T) {
	var v struct {
		Big   timesheet.LooseNumber `json:"big"`
		Tiny  timesheet.LooseNumber `json:"tiny"`
		Quote timesheet.LooseNumber `json:"quote"`
	}
	// GIVEN: exponents far outside any real hour or money value
	payload := `{"big": 1e2000000000, "tiny": "1e-2000000000", "quote": "-1e2000000000"}`

	// WHEN: decoding
	require.NoError(t, json.Unmarshal([]byte(payload), &v))

	// THEN: values are capped rather than expanded
	require.True(t, v.Big.Valid)
	assert.Equal(t, "100000000000000000000", v.Big.Value.String())
	assert.True(t, v.Tiny.Valid)
	assert.True(t, v.Tiny.Value.IsZero())
	assert.Equal(t, "-100000000000000000000", v.Quote.Value.String())
	assert.Equal(t, "24", timesheet.NormalizeNumber(v.Big).Display())
	assert.Equal(t, "0", timesheet.NormalizeNumber(v.Quote).Display())
}

func TestLooseNumber_OrZero(t *testing.T) {
	var n timesheet.LooseNumber
	assert.True(t, n.OrZero().IsZero())
	assert.Equal(t, "3", timesheet.Number(3).OrZero().String())
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidateRecord_CollectsEveryProblem(t *testing.T) {
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'x'
	}
	r := timesheet.Record{
		WeekStart: "January 4th",
		Status:    "DONE",
		Entries: []timesheet.RecordEntry{
			{HourType: timesheet.HourTypeWork},
			{HourType: ""},
			{HourType: timesheet.HourTypeWork},
		},
		ReimbursementItems: []timesheet.RecordItem{
			{Description: string(long), Date: "06/01/2026"},
		},
	}

	err := timesheet.ValidateRecord(r)

	var malformed *generic.MalformedRecordError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Problems, "week_start: must be a YYYY-MM-DD date")
	assert.Contains(t, malformed.Problems, "status: must be one of NEW SUBMITTED NEEDS_APPROVAL APPROVED")
	assert.Contains(t, malformed.Problems, "entries[1].hour_type: required")
	assert.Contains(t, malformed.Problems, `entries: duplicate hour_type "Work"`)
	assert.Contains(t, malformed.Problems, "reimbursement_items[0].description: must be at most 200 characters")
	assert.Contains(t, malformed.Problems, "reimbursement_items[0].date: must be a YYYY-MM-DD date")
}

func TestValidateRecord_Minimal(t *testing.T) {
	assert.NoError(t, timesheet.ValidateRecord(timesheet.Record{WeekStart: "2026-01-04"}))
}

func TestCollectedEntry_JSONShape(t *testing.T) {
	b, err := json.Marshal(timesheet.CollectedEntry{HourType: timesheet.HourTypeWork, Mon: 8, Tue: 7.5})
	require.NoError(t, err)

	assert.JSONEq(t, `{"hour_type":"Work","sun":0,"mon":8,"tue":7.5,"wed":0,"thu":0,"fri":0,"sat":0}`, string(b))
}
