package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/dataset"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/processing"
)

const defaultPruneTarget = 515

func (a *app) pruneCommand() *cobra.Command {
	var (
		in     string
		out    string
		target int
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Copy the dataset without non-AI records, capped at a target size",
		Long: `prune reads the source CSV, drops every row whose ai_summary matches an
exclusion phrase and keeps the first --target rows that remain. The header and
column order are copied unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in == "" {
				in = a.cfg.File
			}
			if out == "" {
				return errors.New("--out is required")
			}
			if filepath.Clean(in) == filepath.Clean(out) {
				return errors.New("--out must differ from the input file")
			}

			rules, err := processing.LoadExclusionRules(a.cfg.ExclusionRulesFile)
			if err != nil {
				return err
			}

			src, err := os.Open(in)
			if err != nil {
				return fmt.Errorf("open %s: %w", in, err)
			}
			defer src.Close()

			dst, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer dst.Close()

			res, err := dataset.PruneCSV(src, dst, rules, target)
			if err != nil {
				return fmt.Errorf("prune %s: %w", in, err)
			}
			if err := dst.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}

			if target > 0 && res.Written < target {
				a.log.Warn("fewer AI-relevant records than target",
					"written", res.Written,
					"target", target,
				)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "read %d, excluded %d, wrote %d to %s\n",
				res.Read, res.Excluded, res.Written, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "input CSV (default DATA_FILE)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output CSV")
	cmd.Flags().IntVar(&target, "target", defaultPruneTarget, "records to keep (0 for all)")
	return cmd
}
