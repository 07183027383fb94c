package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/llm-matchmaker/internal/ledger"
)

var (
	runsLedgerPath string // SQLite run ledger
	runsLimit      int    // Max runs to list
	runsID         string // Show one run in full
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded training runs, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel("warn")

		if runsID != "" {
			r, err := showRun(cmd.Context(), runsLedgerPath, runsID)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			printRun(os.Stdout, r)
			return
		}

		runs, err := listRuns(cmd.Context(), runsLedgerPath, runsLimit)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if len(runs) == 0 {
			fmt.Println("No training runs recorded.")
			return
		}
		printRuns(os.Stdout, runs)
	},
}

// openLedger opens an existing ledger; it never creates one.
func openLedger(path string) (*ledger.Ledger, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("ledger %s: %w", path, err)
	}
	return ledger.Open(path)
}

func listRuns(ctx context.Context, path string, limit int) ([]ledger.Run, error) {
	l, err := openLedger(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = l.Close() }()
	return l.List(ctx, limit)
}

func showRun(ctx context.Context, path, id string) (ledger.Run, error) {
	l, err := openLedger(path)
	if err != nil {
		return ledger.Run{}, err
	}
	defer func() { _ = l.Close() }()
	return l.Get(ctx, id)
}

func printRun(w io.Writer, r ledger.Run) {
	printTable(w, []string{"FIELD", "VALUE"}, [][]string{
		{"id", r.ID},
		{"created", r.CreatedAt.Local().Format(time.DateTime)},
		{"dataset", r.DatasetPath},
		{"rows", fmt.Sprintf("%d", r.Rows)},
		{"seed", fmt.Sprintf("%d", r.Seed)},
		{"winner", r.Winner},
		{"baseline_cv", fmt.Sprintf("%.4f", r.BaselineCV)},
		{"forest_cv", fmt.Sprintf("%.4f", r.ForestCV)},
		{"test_accuracy", fmt.Sprintf("%.4f", r.TestAccuracy)},
		{"best_params", r.BestParams},
		{"artifact", r.ArtifactPath},
	})
}

func printRuns(w io.Writer, runs []ledger.Run) {
	headers := []string{"RUN", "CREATED", "ROWS", "WINNER", "BASELINE CV", "FOREST CV", "TEST ACC", "DATASET"}
	table := make([][]string, 0, len(runs))
	for _, r := range runs {
		table = append(table, []string{
			r.ID[:min(8, len(r.ID))],
			r.CreatedAt.Local().Format(time.DateTime),
			fmt.Sprintf("%d", r.Rows),
			r.Winner,
			fmt.Sprintf("%.4f", r.BaselineCV),
			fmt.Sprintf("%.4f", r.ForestCV),
			fmt.Sprintf("%.4f", r.TestAccuracy),
			r.DatasetPath,
		})
	}
	printTable(w, headers, table)
}

// printTable left-aligns columns by display width.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	line := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				fmt.Fprint(w, "  ")
			}
			if i == len(cells)-1 {
				fmt.Fprint(w, cell)
				continue
			}
			fmt.Fprint(w, padRight(cell, widths[i]))
		}
		fmt.Fprintln(w)
	}
	line(headers)
	for _, row := range rows {
		line(row)
	}
}

func init() {
	runsCmd.Flags().StringVar(&runsLedgerPath, "ledger", "matchmaker.db", "SQLite run ledger path")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to list (0 = all)")
	runsCmd.Flags().StringVar(&runsID, "id", "", "Show the run with this full ID")
	rootCmd.AddCommand(runsCmd)
}
