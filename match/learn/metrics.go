package learn

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/inference-sim/llm-matchmaker/match"
)

// Accuracy is the fraction of positions where pred equals truth.
func Accuracy(truth, pred []match.Candidate) float64 {
	if len(truth) == 0 || len(truth) != len(pred) {
		return 0
	}
	hit := 0
	for i := range truth {
		if truth[i] == pred[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(truth))
}

// MeanStd returns the mean and population standard deviation of xs.
func MeanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	return stat.Mean(xs, nil), stat.PopStdDev(xs, nil)
}

// ConfusionMatrix counts (truth, pred) pairs. Rows are true classes and
// columns predicted classes, both in the order of classes.
type ConfusionMatrix struct {
	Classes []match.Candidate `json:"classes"`
	Counts  [][]int           `json:"counts"`
}

// NewConfusionMatrix tallies predictions. Labels outside classes are skipped.
func NewConfusionMatrix(classes, truth, pred []match.Candidate) *ConfusionMatrix {
	pos := make(map[match.Candidate]int, len(classes))
	for i, c := range classes {
		pos[c] = i
	}
	counts := make([][]int, len(classes))
	for i := range counts {
		counts[i] = make([]int, len(classes))
	}
	for i := range truth {
		t, ok1 := pos[truth[i]]
		p, ok2 := pos[pred[i]]
		if ok1 && ok2 {
			counts[t][p]++
		}
	}
	return &ConfusionMatrix{Classes: append([]match.Candidate(nil), classes...), Counts: counts}
}

func (m *ConfusionMatrix) String() string {
	var b strings.Builder
	width := 12
	fmt.Fprintf(&b, "%*s", width, "")
	for _, c := range m.Classes {
		fmt.Fprintf(&b, " %*s", width, c)
	}
	b.WriteByte('\n')
	for i, c := range m.Classes {
		fmt.Fprintf(&b, "%*s", width, c)
		for _, n := range m.Counts[i] {
			fmt.Fprintf(&b, " %*d", width, n)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ClassMetrics are the per-class scores of a classification report.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// ClassificationReport summarizes per-class precision, recall and F1.
type ClassificationReport struct {
	Classes     []match.Candidate `json:"classes"`
	PerClass    []ClassMetrics    `json:"per_class"`
	Accuracy    float64           `json:"accuracy"`
	MacroAvg    ClassMetrics      `json:"macro_avg"`
	WeightedAvg ClassMetrics      `json:"weighted_avg"`
}

// NewClassificationReport computes the report from a confusion matrix.
// Undefined ratios (no predictions or no support) are reported as 0.
func NewClassificationReport(cm *ConfusionMatrix) *ClassificationReport {
	k := len(cm.Classes)
	r := &ClassificationReport{Classes: cm.Classes, PerClass: make([]ClassMetrics, k)}
	total, correct := 0, 0
	for i := 0; i < k; i++ {
		tp := cm.Counts[i][i]
		support, predicted := 0, 0
		for j := 0; j < k; j++ {
			support += cm.Counts[i][j]
			predicted += cm.Counts[j][i]
		}
		m := ClassMetrics{Support: support}
		if predicted > 0 {
			m.Precision = float64(tp) / float64(predicted)
		}
		if support > 0 {
			m.Recall = float64(tp) / float64(support)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.PerClass[i] = m
		total += support
		correct += tp
	}
	if total == 0 || k == 0 {
		return r
	}
	r.Accuracy = float64(correct) / float64(total)
	for _, m := range r.PerClass {
		w := float64(m.Support) / float64(total)
		r.MacroAvg.Precision += m.Precision / float64(k)
		r.MacroAvg.Recall += m.Recall / float64(k)
		r.MacroAvg.F1 += m.F1 / float64(k)
		r.WeightedAvg.Precision += m.Precision * w
		r.WeightedAvg.Recall += m.Recall * w
		r.WeightedAvg.F1 += m.F1 * w
	}
	r.MacroAvg.Support = total
	r.WeightedAvg.Support = total
	return r
}

func (r *ClassificationReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%14s %10s %10s %10s %10s\n", "", "precision", "recall", "f1-score", "support")
	row := func(name string, m ClassMetrics) {
		fmt.Fprintf(&b, "%14s %10.2f %10.2f %10.2f %10d\n", name, m.Precision, m.Recall, m.F1, m.Support)
	}
	for i, c := range r.Classes {
		row(string(c), r.PerClass[i])
	}
	b.WriteByte('\n')
	fmt.Fprintf(&b, "%14s %10s %10s %10.2f %10d\n", "accuracy", "", "", r.Accuracy, r.MacroAvg.Support)
	row("macro avg", r.MacroAvg)
	row("weighted avg", r.WeightedAvg)
	return b.String()
}
