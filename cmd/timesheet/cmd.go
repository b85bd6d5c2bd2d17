package main

import (
	"github.com/spf13/cobra"

	"github.com/warp/timesheet-engine/timesheet"
)

func SetupCommands(a *App) *cobra.Command {
	var role string

	// root command
	rootCmd := &cobra.Command{
		Use:          "timesheet",
		Short:        "Weekly timesheet grid from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			r, err := timesheet.ParseRole(role)
			if err != nil {
				return err
			}
			a.role = r
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&role, "role", "staff", "role of the sheet owner (staff, trainee, support, admin)")
	rootCmd.PersistentFlags().StringVar(&a.catalogPath, "catalog", "", "catalog JSON with hour types, role restrictions and holidays")

	// command for rendering a record as a grid
	gridCmd := &cobra.Command{
		Use:   "grid [record.json]",
		Short: "Show the hour grid with totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ShowGrid(args[0])
		},
	}

	// command for printing the collected outbound record
	collectCmd := &cobra.Command{
		Use:   "collect [record.json]",
		Short: "Print the record as it would be saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Collect(args[0])
		},
	}

	// command for committing one cell
	var write bool
	setCmd := &cobra.Command{
		Use:   "set [record.json] [hour type] [day] [value]",
		Short: "Enter hours for one day, adding the row when missing",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.SetHours(args[0], args[1], args[2], args[3], write)
		},
	}
	setCmd.Flags().BoolVar(&write, "write", false, "rewrite the record file")

	// command for listing catalog holidays
	holidaysCmd := &cobra.Command{
		Use:   "holidays",
		Short: "List holidays from the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ListHolidays()
		},
	}

	// add commands
	rootCmd.AddCommand(gridCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(holidaysCmd)

	return rootCmd
}
