package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ukydev/maintenance-tracker/internal/lifecycle"
)

func newPlanCmd(opts *globalOptions) *cobra.Command {
	var (
		date          string
		serviceType   string
		description   string
		targetMileage int
	)

	cmd := &cobra.Command{
		Use:   "plan <vehicle-id>",
		Short: "Plan future service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseDate(date)
			if err != nil {
				return err
			}
			in := lifecycle.PlannedInput{
				VehicleID:   args[0],
				Date:        when,
				ServiceType: serviceType,
				Description: description,
			}
			if cmd.Flags().Changed("target-mileage") {
				in.TargetMileage = &targetMileage
			}

			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			rec, err := s.engine.CreatePlanned(context.Background(), in)
			if err != nil {
				return err
			}
			if rec == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Service already planned for %s\n", when.Format(dateLayout))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), rec.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Planned date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVarP(&serviceType, "type", "t", "", "Service type")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description")
	cmd.Flags().IntVar(&targetMileage, "target-mileage", 0, "Odometer reading the service is due at")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}
