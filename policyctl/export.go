package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/dataset"
)

func (a *app) exportCommand() *cobra.Command {
	var (
		filters filterFlags
		out     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered records as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := a.load(cmd.Context(), filters.filter())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			if err := dataset.WriteCSV(w, records); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
			a.log.Info("export complete", "records", len(records), "out", out)
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file (- for stdout)")
	return cmd
}
