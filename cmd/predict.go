package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/llm-matchmaker/match"
	"github.com/inference-sim/llm-matchmaker/match/learn"
)

var (
	predictModel   string                              // Artifact path
	predictExplain bool                                // Print the rule-table breakdown
	predictAttrs   = make(map[match.Attribute]*string) // One flag per attribute
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Recommend a candidate for one scenario using a trained artifact",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel("warn")

		raw := make(map[string]string, len(predictAttrs))
		for attr, v := range predictAttrs {
			raw[string(attr)] = *v
		}
		s, err := match.ParseScenario(raw)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		facade, meta, err := loadFacade(predictModel, logrus.StandardLogger())
		if err != nil {
			logrus.Fatalf("unable to load model; %v", err)
		}
		logrus.WithFields(logrus.Fields{"run_id": meta.RunID, "cv_mean": meta.CVMean}).Debug("artifact loaded")

		pred, err := facade.Predict(s)
		if err != nil {
			logrus.Fatalf("prediction failed: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"prediction": pred.Model}); err != nil {
			logrus.Fatalf("%v", err)
		}
		if predictExplain {
			fmt.Println()
			printExplanation(os.Stdout, s)
		}
	},
}

// printExplanation prints each rule's noise-free delta per candidate, the
// totals, and the candidate the rule table alone favors.
func printExplanation(w io.Writer, s match.Scenario) {
	cands := match.Candidates()
	headers := []string{"RULE"}
	for _, c := range cands {
		headers = append(headers, string(c))
	}
	parts := make([][]match.Contribution, len(cands))
	totals := make(map[match.Candidate]float64, len(cands))
	for i, c := range cands {
		parts[i] = match.Breakdown(s, c)
		totals[c] = match.BaseScore(s, c)
	}

	var rows [][]string
	for r, rule := range match.DefaultRules() {
		row := []string{rule.Name}
		for i := range cands {
			row = append(row, fmt.Sprintf("%+.1f", parts[i][r].Delta))
		}
		rows = append(rows, row)
	}
	total := []string{"total"}
	offline := []string{"offline"}
	for _, c := range cands {
		total = append(total, fmt.Sprintf("%+.1f", totals[c]))
		offline = append(offline, fmt.Sprintf("%t", match.CapabilityOf(c).Offline))
	}
	rows = append(rows, total, offline)
	printTable(w, headers, rows)
	fmt.Fprintf(w, "\nRule table favors %s\n", match.Argmax(totals))
}

// loadFacade loads the artifact at path into a fresh handle.
func loadFacade(path string, log logrus.FieldLogger) (*match.Facade, *learn.ArtifactMeta, error) {
	var meta *learn.ArtifactMeta
	handle := match.NewMatcherHandle()
	err := handle.Load(func() (match.Matcher, error) {
		p, m, err := learn.LoadArtifact(path)
		if err != nil {
			return nil, err
		}
		meta = m
		return p, nil
	})
	if err != nil {
		return match.NewFacade(handle, log), nil, err
	}
	return match.NewFacade(handle, log), meta, nil
}

func init() {
	predictCmd.Flags().StringVar(&predictModel, "model", "best_llm_matchmaker_model.zst", "Trained artifact path")
	predictCmd.Flags().BoolVar(&predictExplain, "explain", false, "Also print the per-rule score breakdown")
	for _, attr := range match.Attributes() {
		v := new(string)
		predictAttrs[attr] = v
		predictCmd.Flags().StringVar(v, string(attr), "", "One of: "+strings.Join(match.LegalValues(attr), ", "))
		_ = predictCmd.MarkFlagRequired(string(attr))
	}
	rootCmd.AddCommand(predictCmd)
}
