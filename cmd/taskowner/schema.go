package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/amonks/taskowner/store"
	"github.com/amonks/taskowner/task"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the SQLite schema for a development database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		if _, err := io.WriteString(out, store.Schema()); err != nil {
			return err
		}
		return writeStatusLegend(out)
	},
}

// writeStatusLegend appends the app_task.status codes as SQL comments.
func writeStatusLegend(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "\n-- app_task.status codes:"); err != nil {
		return err
	}
	for _, status := range task.ValidStatuses() {
		if _, err := fmt.Fprintf(w, "--   %d %s\n", int(status), status); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
