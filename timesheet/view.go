package timesheet

import (
	"github.com/warp/timesheet-engine/generic"
)

// =============================================================================
// GRID VIEW - Read-only snapshot for presentation layers
// =============================================================================

// GridView is everything a presentation layer needs to render the form.
// Hours are preformatted with one decimal; empty cells are blank strings.
type GridView struct {
	ID                 string       `json:"id,omitempty"`
	WeekStart          string       `json:"week_start"`
	Days               []DayView    `json:"days"`
	Status             Status       `json:"status"`
	PayPeriodLocked    bool         `json:"pay_period_locked"`
	Editable           bool         `json:"editable"`
	ReadOnlyReason     string       `json:"read_only_reason,omitempty"`
	Dirty              bool         `json:"dirty"`
	Rows               []RowView    `json:"rows"`
	ColumnTotals       []string     `json:"column_totals"`
	GrandTotal         string       `json:"grand_total"`
	AvailableHourTypes []HourType   `json:"available_hour_types"`
	Notices            []NoticeView `json:"notices,omitempty"`
	ReimbursementItems []ItemView   `json:"reimbursement_items"`
	ReimbursementTotal string       `json:"reimbursement_total"`
}

type DayView struct {
	Key     string `json:"key"`
	Date    string `json:"date"`
	Holiday string `json:"holiday,omitempty"`
}

type RowView struct {
	HourType HourType `json:"hour_type"`
	Cells    []string `json:"cells"`
	Total    string   `json:"total"`
}

type NoticeView struct {
	HourType HourType `json:"hour_type"`
	Day      string   `json:"day"`
	Date     string   `json:"date"`
	Holiday  string   `json:"holiday"`
	Message  string   `json:"message"`
}

type ItemView struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date,omitempty"`
}

func (e *Engine) Grid() GridView {
	sheet := e.store.Timesheet()
	v := GridView{
		ID:                 sheet.ID,
		WeekStart:          sheet.WeekStart.String(),
		Status:             sheet.Status,
		PayPeriodLocked:    sheet.PayPeriodLocked,
		Editable:           sheet.Editable(),
		ReadOnlyReason:     sheet.ReadOnlyReason(),
		Dirty:              sheet.Dirty,
		GrandTotal:         FormatHours(e.GrandTotal()),
		AvailableHourTypes: e.AvailableHourTypes(),
		ReimbursementTotal: FormatMoney(e.store.ReimbursementTotal()),
		Rows:               []RowView{},
		ReimbursementItems: []ItemView{},
	}
	if v.AvailableHourTypes == nil {
		v.AvailableHourTypes = []HourType{}
	}

	for _, d := range generic.AllWeekdays {
		dv := DayView{Key: d.Key()}
		if !sheet.WeekStart.IsZero() {
			dv.Date = generic.DateOf(sheet.WeekStart, d).String()
		}
		dv.Holiday, _ = e.HolidayOn(d)
		v.Days = append(v.Days, dv)
		v.ColumnTotals = append(v.ColumnTotals, FormatHours(e.ColumnTotal(d)))
	}

	for _, ht := range sheet.HourTypes {
		row := sheet.Entries[ht]
		rv := RowView{HourType: ht, Total: FormatHours(e.RowTotal(ht))}
		for _, c := range row {
			rv.Cells = append(rv.Cells, c.Display())
		}
		v.Rows = append(v.Rows, rv)
	}

	for _, n := range e.Notices() {
		v.Notices = append(v.Notices, NoticeView{
			HourType: n.HourType,
			Day:      n.Day.Key(),
			Date:     n.Date.String(),
			Holiday:  n.Holiday,
			Message:  n.Message(),
		})
	}

	for _, item := range sheet.ReimbursementItems {
		v.ReimbursementItems = append(v.ReimbursementItems, ItemViewOf(item))
	}
	return v
}

func ItemViewOf(item ReimbursementItem) ItemView {
	return ItemView{
		ID:          item.ID,
		Description: item.Description,
		Amount:      FormatMoney(item.Amount),
		Category:    string(item.Category),
		Date:        item.Date.String(),
	}
}
