package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amonks/taskowner/access"
	"github.com/amonks/taskowner/internal/markdown"
	"github.com/amonks/taskowner/internal/ui"
)

var accessCmd = &cobra.Command{
	Use:   "access <task-id> <username>",
	Short: "Explain whether a user can see a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runAccess,
}

const reportWidth = 80

func init() {
	rootCmd.AddCommand(accessCmd)
	addQueryFlags(accessCmd)
}

func runAccess(cmd *cobra.Command, args []string) error {
	taskID, err := parseTaskID(args[0])
	if err != nil {
		return err
	}
	queries, closeQueries, err := openQueries(cmd)
	if err != nil {
		return err
	}
	defer closeQueries()

	report, err := queries.CheckAccess(cmd.Context(), taskID, args[1])
	if err != nil {
		return err
	}
	if queryJSON {
		return encodeJSON(cmd.OutOrStdout(), report)
	}
	return printAccessReport(cmd.OutOrStdout(), report)
}

func printAccessReport(w io.Writer, report access.Report) error {
	if _, err := fmt.Fprintf(w, "Access %s\n\n", ui.Verdict(report.HasAccess)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, markdown.Render(reportWidth, accessMarkdown(report)))
	return err
}

func accessMarkdown(report access.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s on task %d\n\n", markdown.Escape(report.Username), report.TaskID)
	fmt.Fprintf(&b, "- Task: %s (%s)\n", markdown.Escape(report.TaskName), report.StatusName)
	fmt.Fprintf(&b, "- Project: %d %s", report.ProjectID, markdown.Escape(report.ProjectName))
	if report.IsPublicProject {
		b.WriteString(" (public)")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- Superuser: %t\n", report.IsSuperuser)
	fmt.Fprintf(&b, "- Groups: %s\n\n", markdown.Escape(dash(report.UserGroups)))
	b.WriteString("### Reasons\n\n")
	for _, reason := range report.AccessType {
		fmt.Fprintf(&b, "- %s\n", markdown.Escape(reason))
	}
	return b.String()
}
