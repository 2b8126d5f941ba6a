package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ukydev/maintenance-tracker/internal/lifecycle"
)

func newVehicleCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vehicle",
		Short: "Manage vehicles",
	}
	cmd.AddCommand(newVehicleAddCmd(opts))
	cmd.AddCommand(newVehicleListCmd(opts))
	return cmd
}

func newVehicleAddCmd(opts *globalOptions) *cobra.Command {
	var in lifecycle.VehicleInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a vehicle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			v, err := s.engine.CreateVehicle(context.Background(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Make, "make", "", "Manufacturer")
	cmd.Flags().StringVar(&in.Model, "model", "", "Model")
	cmd.Flags().IntVar(&in.Year, "year", 0, "Model year")
	cmd.Flags().StringVar(&in.VIN, "vin", "", "Vehicle identification number")

	return cmd
}

func newVehicleListCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List vehicles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()

			vehicles, err := s.engine.Vehicles(context.Background())
			if err != nil {
				return err
			}

			switch format {
			case "json":
				return writeJSON(cmd, vehicles)
			case "table":
				t := table.NewWriter()
				t.SetOutputMirror(cmd.OutOrStdout())
				t.SetStyle(table.StyleLight)
				t.AppendHeader(table.Row{"ID", "Vehicle", "Year", "VIN"})
				for _, v := range vehicles {
					year := ""
					if v.Year > 0 {
						year = strconv.Itoa(v.Year)
					}
					t.AppendRow(table.Row{v.ID, v.DisplayName(), year, v.VIN})
				}
				t.Render()
				return nil
			default:
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}
