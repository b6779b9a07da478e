package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/TFMV/tabmatch/pkg/readers"
	"github.com/TFMV/tabmatch/report"
)

func newInspectCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show the columns, row count and first rows of a CSV, Excel or Parquet file",
		Long: `Show the columns, row count and first rows of a CSV, Excel or Parquet file.
Given a JSON run report (Report-*.json), show the run it describes instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if strings.EqualFold(filepath.Ext(path), ".json") {
				return inspectReport(cmd.OutOrStdout(), path)
			}
			table, err := readers.Read(cmd.Context(), path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File: %s\n", filepath.Base(path))
			fmt.Fprintf(out, "Type: %s\n", readers.DetectType(path))
			fmt.Fprintf(out, "Number of rows: %d\n", table.NumRows())

			fmt.Fprintln(out, "\nColumns:")
			for i, h := range table.Headers {
				fmt.Fprintf(out, "  %d. %s\n", i+1, h)
			}

			n := min(limit, table.NumRows())
			fmt.Fprintf(out, "\nFirst %d rows:\n", n)
			for i := 0; i < n; i++ {
				values := make([]string, len(table.Headers))
				for j := range table.Headers {
					values[j] = table.Value(table.Rows[i], j)
				}
				fmt.Fprintf(out, "Row %d: [%s]\n", i+1, strings.Join(values, ", "))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "rows", "n", 5, "number of rows to print")
	return cmd
}

func inspectReport(out io.Writer, path string) error {
	run, err := report.ReportFromFilePath(path)
	if err != nil {
		return fmt.Errorf("loading report %s: %w", path, err)
	}

	fmt.Fprintf(out, "Report: %s\n", run.ID)
	fmt.Fprintf(out, "Started: %s (took %s)\n", run.StartTime.Format(time.RFC3339), run.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "File A: %s (%d rows)\n", run.FileA, run.TotalA)
	fmt.Fprintf(out, "File B: %s (%d rows)\n", run.FileB, run.TotalB)
	fmt.Fprintf(out, "Keys: %s <-> %s\n", strings.Join(run.KeyColumnsA, ", "), strings.Join(run.KeyColumnsB, ", "))
	fmt.Fprintf(out, "Matched: %d, Unmatched: %d, Total: %d (%.1f%%)\n",
		run.Matched, run.Unmatched, run.TotalB, run.MatchRate())
	for _, e := range run.Exports {
		fmt.Fprintf(out, "  %s: %s (%d rows)\n", e.Kind, e.Path, e.Rows)
	}
	return nil
}
