// Command timesheet renders and edits timesheet record files.
//
//	timesheet grid week.json --role trainee --catalog catalog.json
//	timesheet set week.json Work mon 7.5 --write
//	timesheet collect week.json
//	timesheet holidays --catalog catalog.json
package main

import (
	"os"

	"github.com/warp/timesheet-engine/config"
)

func main() {
	logger := config.NewLoggerTo(os.Stderr, &config.Config{LogFormat: "text", LogLevel: "warn"})
	app := NewApp(os.Stdout, logger)

	if err := SetupCommands(app).Execute(); err != nil {
		os.Exit(1)
	}
}
