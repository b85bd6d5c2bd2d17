package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/warp/timesheet-engine/factory"
	"github.com/warp/timesheet-engine/generic"
	"github.com/warp/timesheet-engine/timesheet"
)

// App renders and edits timesheet record files from the terminal.
type App struct {
	out    io.Writer
	logger *slog.Logger

	role        timesheet.Role
	catalogPath string
}

func NewApp(out io.Writer, logger *slog.Logger) *App {
	return &App{out: out, logger: logger, role: timesheet.RoleStaff}
}

// open loads a record file into a fresh store and engine.
func (a *App) open(path string) (*timesheet.Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var record timesheet.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	catalog, calendar, err := a.catalog()
	if err != nil {
		return nil, err
	}

	store := timesheet.NewStore(timesheet.WithLogger(a.logger))
	engine := timesheet.NewEngine(store, timesheet.EngineConfig{
		Role:     a.role,
		Catalog:  catalog,
		Calendar: calendar,
		Logger:   a.logger,
	})
	if err := store.LoadTimesheet(record); err != nil {
		engine.Close()
		return nil, err
	}
	return engine, nil
}

func (a *App) catalog() (*timesheet.Catalog, generic.HolidayCalendar, error) {
	if a.catalogPath == "" {
		return timesheet.DefaultCatalog(), generic.DefaultHolidayCalendar{}, nil
	}
	cfg, err := factory.NewCatalogFactory().LoadCatalog(a.catalogPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg.Catalog, generic.NewStaticHolidayCalendar(cfg.Holidays...), nil
}

func release(e *timesheet.Engine) {
	e.Close()
	e.Store().Dispose()
}

// =============================================================================
// COMMANDS
// =============================================================================

// ShowGrid prints the hour grid, totals, notices and reimbursements.
func (a *App) ShowGrid(path string) error {
	engine, err := a.open(path)
	if err != nil {
		return err
	}
	defer release(engine)

	a.printGrid(engine.Grid())
	return nil
}

// Collect prints the outbound record as JSON.
func (a *App) Collect(path string) error {
	engine, err := a.open(path)
	if err != nil {
		return err
	}
	defer release(engine)

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(engine.Record())
}

// SetHours commits one cell and prints the updated grid. With write set the
// record file is rewritten.
func (a *App) SetHours(path, hourType, day, value string, write bool) error {
	engine, err := a.open(path)
	if err != nil {
		return err
	}
	defer release(engine)

	d, err := generic.ParseWeekday(day)
	if err != nil {
		return fmt.Errorf("%w: %v", generic.ErrInvalidDay, err)
	}
	ht := timesheet.HourType(hourType)
	if !engine.Store().Has(ht) {
		if err := engine.AddHourType(ht); err != nil {
			return err
		}
	}
	if _, err := engine.CommitHours(ht, d, value); err != nil {
		return err
	}

	a.printGrid(engine.Grid())
	if !write {
		return nil
	}
	data, err := json.MarshalIndent(engine.Record(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ListHolidays prints the holidays configured in the catalog.
func (a *App) ListHolidays() error {
	if a.catalogPath == "" {
		return fmt.Errorf("--catalog is required")
	}
	cfg, err := factory.NewCatalogFactory().LoadCatalog(a.catalogPath)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tNAME\tRECURRING")
	for _, h := range cfg.Holidays {
		fmt.Fprintf(tw, "%s\t%s\t%t\n", h.Date, h.Name, h.Recurring)
	}
	return tw.Flush()
}

// =============================================================================
// RENDERING
// =============================================================================

func (a *App) printGrid(v timesheet.GridView) {
	status := string(v.Status)
	if !v.Editable {
		status += " (read-only: " + v.ReadOnlyReason + ")"
	}
	fmt.Fprintf(a.out, "Week of %s  %s\n\n", v.WeekStart, status)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	header := []string{"HOUR TYPE"}
	for _, d := range v.Days {
		label := strings.ToUpper(d.Key)
		if d.Holiday != "" {
			label += "*"
		}
		header = append(header, label)
	}
	header = append(header, "TOTAL")
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for _, row := range v.Rows {
		cells := append([]string{string(row.HourType)}, row.Cells...)
		cells = append(cells, row.Total)
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	totals := append([]string{"TOTAL"}, v.ColumnTotals...)
	totals = append(totals, v.GrandTotal)
	fmt.Fprintln(tw, strings.Join(totals, "\t")+"\t")
	tw.Flush()

	for _, d := range v.Days {
		if d.Holiday != "" {
			fmt.Fprintf(a.out, "* %s %s: %s\n", strings.ToUpper(d.Key), d.Date, d.Holiday)
		}
	}
	for _, n := range v.Notices {
		fmt.Fprintf(a.out, "! %s\n", n.Message)
	}

	if len(v.ReimbursementItems) == 0 {
		return
	}
	fmt.Fprintln(a.out)
	tw = tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tDESCRIPTION\tDATE\tAMOUNT")
	for _, item := range v.ReimbursementItems {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", item.Category, item.Description, item.Date, item.Amount)
	}
	fmt.Fprintf(tw, "\t\tTOTAL\t%s\n", v.ReimbursementTotal)
	tw.Flush()
}
