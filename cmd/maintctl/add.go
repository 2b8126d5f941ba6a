package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ukydev/maintenance-tracker/internal/lifecycle"
)

func newAddCmd(opts *globalOptions) *cobra.Command {
	var (
		date           string
		mileage        int
		serviceType    string
		description    string
		works          string
		attachmentFile string
	)

	cmd := &cobra.Command{
		Use:   "add <vehicle-id>",
		Short: "Record completed service",
		Long:  "Record completed service. The next service is planned automatically from the service type.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseDate(date)
			if err != nil {
				return err
			}
			in := lifecycle.CompletedInput{
				VehicleID:      args[0],
				Date:           when,
				ServiceType:    serviceType,
				Description:    description,
				WorksPerformed: works,
			}
			if cmd.Flags().Changed("mileage") {
				in.Mileage = &mileage
			}
			if attachmentFile != "" {
				data, err := os.ReadFile(attachmentFile)
				if err != nil {
					return err
				}
				in.AttachmentText = string(data)
			}

			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			rec, err := s.engine.CreateCompleted(context.Background(), in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, rec.ID)
			fmt.Fprintf(out, "Next service: %s at %d km\n",
				rec.NextServiceDate.Format(dateLayout), rec.NextServiceMileage)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Service date (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&mileage, "mileage", "m", 0, "Odometer reading in km")
	cmd.Flags().StringVarP(&serviceType, "type", "t", "", "Service type, e.g. \"Oil change\"")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	cmd.Flags().StringVar(&works, "works", "", "Works performed")
	cmd.Flags().StringVar(&attachmentFile, "attachment", "", "File with recognized document text")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("mileage")

	return cmd
}
