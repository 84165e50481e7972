package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/analytics"
)

type statsReport struct {
	Stats       analytics.DashboardStats      `json:"stats"`
	Trend       analytics.Trend               `json:"trend"`
	Departments []analytics.DepartmentSummary `json:"departments"`
}

func (a *app) statsCommand() *cobra.Command {
	var (
		filters filterFlags
		asJSON  bool
		top     int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print headline numbers for the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := a.load(cmd.Context(), filters.filter())
			if err != nil {
				return err
			}

			overview := analytics.Dashboard(records, a.now())
			report := statsReport{
				Stats:       overview.Stats,
				Trend:       overview.Trend,
				Departments: overview.Departments,
			}
			if top > 0 && len(report.Departments) > top {
				report.Departments = report.Departments[:top]
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printStats(out, report)
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().IntVar(&top, "top", analytics.DepartmentTopLimit, "departments to list (0 for all)")
	return cmd
}

func printStats(w io.Writer, r statsReport) {
	s := r.Stats
	fmt.Fprintf(w, "%-24s %d\n", "Policies:", s.TotalPolicies)
	fmt.Fprintf(w, "%-24s %.1f\n", "Average relevance:", s.AvgRelevanceScore)
	fmt.Fprintf(w, "%-24s %d\n", "High priority:", s.HighPriorityCount)
	fmt.Fprintf(w, "%-24s %d\n", "Requires action:", s.RequiresActionCount)
	fmt.Fprintf(w, "%-24s %d\n", "Last six months:", s.RecentPoliciesCount)
	fmt.Fprintf(w, "%-24s %d (%.1f%%)\n", "Regulations:", s.RegulationCount, s.RegulationPercent)
	fmt.Fprintf(w, "%-24s %d\n", "Strategic:", s.StrategicCount)
	fmt.Fprintf(w, "%-24s %s (%.1f%%)\n", "Trend:", r.Trend.Direction, r.Trend.Percentage)

	if len(r.Departments) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Departments:")
	for _, d := range r.Departments {
		fmt.Fprintf(w, "  %-40s %4d  %5.1f%%\n", d.Department, d.Total, d.Percentage)
	}
}
