package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/ukydev/maintenance-tracker/internal/models"
)

func newEditCmd(opts *globalOptions) *cobra.Command {
	var (
		date        string
		mileage     int
		serviceType string
		description string
		works       string
		format      string
	)

	cmd := &cobra.Command{
		Use:   "edit <record-id>",
		Short: "Edit a record",
		Long:  "Edit a record. Only the flags given are changed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.RecordPatch
			flags := cmd.Flags()
			if flags.Changed("date") {
				when, err := parseDate(date)
				if err != nil {
					return err
				}
				patch.Date = &when
			}
			if flags.Changed("mileage") {
				patch.Mileage = &mileage
			}
			if flags.Changed("type") {
				patch.ServiceType = &serviceType
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("works") {
				patch.WorksPerformed = &works
			}
			if patch.IsEmpty() {
				return errors.New("nothing to change")
			}

			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			rec, err := s.engine.Update(context.Background(), args[0], patch)
			if err != nil {
				return err
			}
			return printRecord(cmd, format, rec)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "New date")
	cmd.Flags().IntVarP(&mileage, "mileage", "m", 0, "New odometer reading in km")
	cmd.Flags().StringVarP(&serviceType, "type", "t", "", "New service type")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVar(&works, "works", "", "New works performed")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}

func printRecord(cmd *cobra.Command, format string, rec *models.MaintenanceRecord) error {
	if format == "json" {
		return writeJSON(cmd, rec)
	}
	kind := "completed"
	if rec.IsPlanned {
		kind = "planned"
	}
	t := newTable(cmd)
	t.AppendRows(rowsOf(
		"ID", rec.ID,
		"Kind", kind,
		"Date", rec.Date.Format(dateLayout),
		"Mileage", rec.Mileage,
		"Type", rec.ServiceType,
		"Description", rec.Description,
		"Next service", rec.NextServiceDate.Format(dateLayout),
		"Next mileage", rec.NextServiceMileage,
		"Updated", rec.UpdatedAt.Local().Format(time.DateTime),
	))
	t.Render()
	return nil
}
