package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/irscelearn/ce-reporter/internal/engine"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-program reporting totals from the ledger",
	RunE: func(cmd *cobra.Command, _ []string) error {
		eng, _, err := openEngine()
		if err != nil {
			return err
		}

		report, err := eng.Stats()
		if err != nil {
			return err
		}

		formatStats(report)
		return nil
	},
}

func formatStats(report *engine.StatsReport) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROGRAM\tREPORTED\tCE HOURS")
	for _, p := range report.Programs {
		fmt.Fprintf(w, "%s\t%d\t%.1f\n", p.Program, p.Reported, p.Hours)
	}
	fmt.Fprintf(w, "TOTAL\t%d\t%.1f\n", report.TotalReported, report.TotalHours)
	w.Flush()
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
