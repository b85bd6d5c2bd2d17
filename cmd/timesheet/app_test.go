package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet-engine/timesheet"
)

const weekRecord = `{
	"id": "ts-1",
	"week_start": "2026-01-04",
	"status": "NEW",
	"entries": [{"hour_type": "Work", "mon": 8, "tue": "7.6"}],
	"reimbursement_items": [{"id": "r1", "description": "Fuel", "amount": 40, "category": "Gas"}]
}`

const testCatalog = `{
	"holidays": [{"date": "2026-01-05", "name": "Company Day"}]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := NewApp(&out, slog.New(slog.NewTextHandler(io.Discard, nil)))
	cmd := SetupCommands(app)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func TestGrid_RendersTotalsAndHolidays(t *testing.T) {
	record := writeFile(t, "week.json", weekRecord)
	catalog := writeFile(t, "catalog.json", testCatalog)

	out, err := runCLI(t, "grid", record, "--catalog", catalog)
	require.NoError(t, err)

	assert.Contains(t, out, "Week of 2026-01-04  NEW")
	assert.Contains(t, out, "MON*")
	assert.Contains(t, out, "15.5")
	assert.Contains(t, out, "* MON 2026-01-05: Company Day")
	assert.Contains(t, out, "! 8.0 Work hours entered on Company Day (2026-01-05)")
	assert.Contains(t, out, "40.00")
}

func TestCollect_PrintsOutboundRecord(t *testing.T) {
	record := writeFile(t, "week.json", weekRecord)

	out, err := runCLI(t, "collect", record)
	require.NoError(t, err)

	var r timesheet.Record
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Len(t, r.Entries, 1)
	assert.Equal(t, "7.5", r.Entries[0].Tue.Value.String())
}

func TestSet_WritesBack(t *testing.T) {
	record := writeFile(t, "week.json", weekRecord)

	_, err := runCLI(t, "set", record, "PTO", "fri", "8", "--write")
	require.NoError(t, err)

	out, err := runCLI(t, "collect", record)
	require.NoError(t, err)
	var r timesheet.Record
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Len(t, r.Entries, 2)
	assert.Equal(t, timesheet.HourTypePTO, r.Entries[1].HourType)
}

func TestSet_TraineeRefusedWork(t *testing.T) {
	record := writeFile(t, "week.json", `{"week_start": "2026-01-04"}`)

	_, err := runCLI(t, "set", record, "Work", "mon", "8", "--role", "trainee")
	assert.Error(t, err)

	_, err = runCLI(t, "set", record, "Training", "someday", "8", "--role", "trainee")
	assert.Error(t, err)

	_, err = runCLI(t, "grid", record, "--role", "intern")
	assert.Error(t, err)
}

func TestHolidays_RequiresCatalog(t *testing.T) {
	_, err := runCLI(t, "holidays")
	assert.Error(t, err)

	out, err := runCLI(t, "holidays", "--catalog", writeFile(t, "catalog.json", testCatalog))
	require.NoError(t, err)
	assert.Contains(t, out, "Company Day")
}
