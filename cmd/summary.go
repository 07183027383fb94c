package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/llm-matchmaker/match"
	"github.com/inference-sim/llm-matchmaker/match/dataset"
)

var summaryData string // Dataset CSV to summarize

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print label and attribute value counts of a dataset",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel("warn")

		ds, err := loadDataset(summaryData)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		s := dataset.Summarize(ds.Rows)
		fmt.Printf("%s: %d rows\n", summaryData, s.Rows)
		printLabelCounts(os.Stdout, s)
		for _, a := range match.Attributes() {
			printCounts(os.Stdout, string(a), s.ValueCounts(a), s.Rows)
		}
	},
}

// loadDataset reads dataPath with its header sidecar when one exists.
func loadDataset(dataPath string) (*dataset.Dataset, error) {
	headerPath := dataset.HeaderPath(dataPath)
	if _, err := os.Stat(headerPath); err != nil {
		headerPath = ""
	}
	return dataset.LoadDataset(headerPath, dataPath)
}

func printLabelCounts(w io.Writer, s *dataset.Summary) {
	counts := s.LabelCounts()
	printCounts(w, dataset.LabelColumn, counts, s.Rows)
	if len(counts) > 0 && s.Rows > 0 {
		top := match.Candidate(counts[0].Value)
		fmt.Fprintf(w, "majority class %s covers %.3f of rows\n", top, s.LabelShare(top))
	}
}

func printCounts(w io.Writer, title string, counts []dataset.ValueCount, total int) {
	width := runewidth.StringWidth(title)
	for _, vc := range counts {
		width = max(width, runewidth.StringWidth(vc.Value))
	}
	fmt.Fprintf(w, "\n%s  %6s  %6s\n", padRight(title, width), "count", "share")
	fmt.Fprintln(w, strings.Repeat("-", width+16))
	for _, vc := range counts {
		share := 0.0
		if total > 0 {
			share = float64(vc.Count) / float64(total)
		}
		fmt.Fprintf(w, "%s  %6d  %6.3f\n", padRight(vc.Value, width), vc.Count, share)
	}
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

func init() {
	summaryCmd.Flags().StringVar(&summaryData, "data", "data/llm_matchmaker_dataset.csv", "Dataset CSV path")
	rootCmd.AddCommand(summaryCmd)
}
