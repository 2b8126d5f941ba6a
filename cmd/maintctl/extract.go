package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ukydev/maintenance-tracker/internal/extract"
)

func newExtractCmd() *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract record fields from recognized document text",
		Long:  "Reads document text from --file or stdin and prints the service type, mileage and works performed it contains.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				data []byte
				err  error
			)
			if filePath != "" {
				data, err = os.ReadFile(filePath)
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd, extract.Extract(string(data)))
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Read text from file instead of stdin")

	return cmd
}
