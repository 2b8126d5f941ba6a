package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/ukydev/maintenance-tracker/internal/partition"
)

const (
	dateLayout     = "2006-01-02"
	maxWorksColumn = 40
)

func newListCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list <vehicle-id>",
		Short: "Show upcoming and completed service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			result, err := s.engine.Overview(context.Background(), args[0])
			if err != nil {
				return err
			}

			switch format {
			case "json":
				return writeJSON(cmd, result)
			case "table":
				outputOverview(cmd, result)
				return nil
			default:
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}

func outputOverview(cmd *cobra.Command, result partition.Result) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Upcoming")
	up := newTable(cmd)
	up.AppendHeader(table.Row{"ID", "Due", "Type", "Target km", "Days", "Status"})
	for _, v := range result.Upcoming {
		status := ""
		if v.IsOverdue {
			status = text.FgRed.Sprint("overdue")
		}
		target := ""
		if v.Record.NextServiceMileage > 0 {
			target = strconv.Itoa(v.Record.NextServiceMileage)
		}
		up.AppendRow(table.Row{v.Record.ID, v.TargetDate.Format(dateLayout), v.Record.ServiceType, target, v.DaysUntil, status})
	}
	up.Render()

	fmt.Fprintln(out, "History")
	hist := newTable(cmd)
	hist.AppendHeader(table.Row{"ID", "Date", "Mileage", "Type", "Works performed"})
	for _, r := range result.History {
		hist.AppendRow(table.Row{
			r.ID,
			r.Date.Format(dateLayout),
			r.Mileage,
			r.ServiceType,
			runewidth.Truncate(r.WorksPerformed, maxWorksColumn, "..."),
		})
	}
	hist.Render()
}

func newTable(cmd *cobra.Command) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	return t
}

// rowsOf pairs up label/value arguments into two-column rows.
func rowsOf(kv ...interface{}) []table.Row {
	rows := make([]table.Row, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		rows = append(rows, table.Row{kv[i], kv[i+1]})
	}
	return rows
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
