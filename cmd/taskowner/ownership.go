package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	internalstrings "github.com/amonks/taskowner/internal/strings"
	"github.com/amonks/taskowner/internal/ui"
	"github.com/amonks/taskowner/ownership"
)

var ownershipCmd = &cobra.Command{
	Use:   "ownership",
	Short: "List the probable owners of every task",
	Args:  cobra.NoArgs,
	RunE:  runOwnership,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List task status with the probable owner",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var ownerCmd = &cobra.Command{
	Use:   "owner <task-id>",
	Short: "Show the probable owner of one task",
	Args:  cobra.ExactArgs(1),
	RunE:  runOwner,
}

const permissionWrapWidth = 72

func init() {
	rootCmd.AddCommand(ownershipCmd, statusCmd, ownerCmd)
	addQueryFlags(ownershipCmd, statusCmd, ownerCmd)
}

func runOwnership(cmd *cobra.Command, _ []string) error {
	queries, closeQueries, err := openQueries(cmd)
	if err != nil {
		return err
	}
	defer closeQueries()

	records, err := queries.TaskOwnership(cmd.Context())
	if err != nil {
		return err
	}
	if queryJSON {
		if records == nil {
			records = []ownership.Record{}
		}
		return encodeJSON(cmd.OutOrStdout(), records)
	}
	return printOwnershipTable(cmd.OutOrStdout(), records)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	queries, closeQueries, err := openQueries(cmd)
	if err != nil {
		return err
	}
	defer closeQueries()

	records, err := queries.TaskStatus(cmd.Context())
	if err != nil {
		return err
	}
	if queryJSON {
		if records == nil {
			records = []ownership.StatusRecord{}
		}
		return encodeJSON(cmd.OutOrStdout(), records)
	}
	return printStatusTable(cmd.OutOrStdout(), records)
}

func runOwner(cmd *cobra.Command, args []string) error {
	taskID, err := parseTaskID(args[0])
	if err != nil {
		return err
	}
	queries, closeQueries, err := openQueries(cmd)
	if err != nil {
		return err
	}
	defer closeQueries()

	record, err := queries.TaskOwner(cmd.Context(), taskID)
	if err != nil {
		return err
	}
	if queryJSON {
		return encodeJSON(cmd.OutOrStdout(), record)
	}
	return printOwnerDetail(cmd.OutOrStdout(), record)
}

func parseTaskID(value string) (int64, error) {
	taskID, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", value)
	}
	return taskID, nil
}

func printOwnershipTable(w io.Writer, records []ownership.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "no tasks have an owner")
		return err
	}
	table := ui.NewTableBuilder([]string{"TASK", "NAME", "STATUS", "PROJECT", "OWNER", "PERMS", "GROUPS", "PROCESSED", "AGE"}, len(records))
	for _, record := range records {
		table.AddRow(
			strconv.FormatInt(record.TaskID, 10),
			ui.TruncateTableCell(record.TaskName),
			record.StatusName,
			ui.TruncateTableCell(record.ProjectName),
			record.ProbableOwner,
			strconv.Itoa(record.PermissionCount),
			ui.TruncateTableCell(dash(record.GroupMemberships)),
			ui.FormatDate(record.ProcessingDate),
			ui.FormatDays(record.DaysSinceProcessed),
		)
	}
	_, err := io.WriteString(w, table.String())
	return err
}

func printStatusTable(w io.Writer, records []ownership.StatusRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "no tasks have an owner")
		return err
	}
	table := ui.NewTableBuilder([]string{"TASK", "NAME", "STATUS", "PROJECT", "OWNER"}, len(records))
	for _, record := range records {
		table.AddRow(
			strconv.FormatInt(record.TaskID, 10),
			ui.TruncateTableCell(record.TaskName),
			record.StatusName,
			ui.TruncateTableCell(record.ProjectName),
			record.OwnerUsername,
		)
	}
	_, err := io.WriteString(w, table.String())
	return err
}

func printOwnerDetail(w io.Writer, record ownership.Record) error {
	processed := ui.FormatDate(record.ProcessingDate)
	if record.DaysSinceProcessed != nil {
		processed += " (" + ui.FormatDays(record.DaysSinceProcessed) + " ago)"
	}
	permissions := indent.String(wordwrap.String(record.Permissions, permissionWrapWidth), 2)

	var b strings.Builder
	fmt.Fprintf(&b, "Task:        %d %s\n", record.TaskID, record.TaskName)
	fmt.Fprintf(&b, "UUID:        %s\n", record.TaskUUID)
	fmt.Fprintf(&b, "Status:      %s\n", record.StatusName)
	fmt.Fprintf(&b, "Project:     %d %s\n", record.ProjectID, record.ProjectName)
	fmt.Fprintf(&b, "Owner:       %s\n", record.ProbableOwner)
	fmt.Fprintf(&b, "Groups:      %s\n", dash(record.GroupMemberships))
	fmt.Fprintf(&b, "Processed:   %s\n", processed)
	fmt.Fprintf(&b, "Permissions: %d\n%s\n", record.PermissionCount, permissions)
	_, err := io.WriteString(w, b.String())
	return err
}

func dash(value string) string {
	if internalstrings.IsBlank(value) {
		return "-"
	}
	return value
}
