package learn

import (
	"fmt"
	"sort"

	"github.com/inference-sim/llm-matchmaker/match"
)

// Classifier is a multi-class model over encoded feature vectors. Labels are
// indices into the owning pipeline's class list. A fitted classifier must be
// safe for concurrent PredictProba calls.
type Classifier interface {
	Fit(X [][]float64, y []int, nClasses int) error
	PredictProba(x []float64) []float64
}

// ModelKind names the classifier inside a pipeline.
type ModelKind string

const (
	KindRandomForest ModelKind = "random_forest"
	KindLogistic     ModelKind = "logistic_regression"
)

// Pipeline is the fitted encoder plus classifier. It satisfies match.Matcher.
type Pipeline struct {
	Kind    ModelKind
	Encoder *match.OneHotEncoder
	Model   Classifier
	Classes []match.Candidate
}

var _ match.Matcher = (*Pipeline)(nil)

// NewForestPipeline returns an unfitted random-forest pipeline.
func NewForestPipeline(params ForestParams, seed int64, parallelism int) *Pipeline {
	return &Pipeline{Kind: KindRandomForest, Model: NewRandomForest(params, seed, parallelism)}
}

// NewLogisticPipeline returns an unfitted logistic-regression pipeline.
func NewLogisticPipeline(c float64, maxIter int) *Pipeline {
	return &Pipeline{Kind: KindLogistic, Model: NewLogisticRegression(c, maxIter)}
}

// candidateLess orders labels the way the class list is stored.
func candidateLess(a, b match.Candidate) bool { return a < b }

// sortedClasses returns the distinct labels in ascending order.
func sortedClasses(labels []match.Candidate) []match.Candidate {
	seen := make(map[match.Candidate]bool)
	var out []match.Candidate
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return candidateLess(out[i], out[j]) })
	return out
}

// Fit learns the encoder on rows, then fits the classifier on the encoded rows.
func (p *Pipeline) Fit(rows []match.FeatureRow, labels []match.Candidate) error {
	if len(rows) == 0 {
		return fmt.Errorf("pipeline: no rows")
	}
	if len(rows) != len(labels) {
		return fmt.Errorf("pipeline: %d rows but %d labels", len(rows), len(labels))
	}
	enc, err := match.FitEncoder(match.FeatureColumns(), rows)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	X, err := enc.TransformAll(rows)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	classes := sortedClasses(labels)
	index := make(map[match.Candidate]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	y := make([]int, len(labels))
	for i, l := range labels {
		y[i] = index[l]
	}
	if err := p.Model.Fit(X, y, len(classes)); err != nil {
		return fmt.Errorf("pipeline %s: %w", p.Kind, err)
	}
	p.Encoder = enc
	p.Classes = classes
	return nil
}

// PredictProba returns each class's probability for row.
func (p *Pipeline) PredictProba(row match.FeatureRow) (map[match.Candidate]float64, error) {
	proba, err := p.proba(row)
	if err != nil {
		return nil, err
	}
	out := make(map[match.Candidate]float64, len(p.Classes))
	for i, c := range p.Classes {
		out[c] = proba[i]
	}
	return out, nil
}

func (p *Pipeline) proba(row match.FeatureRow) ([]float64, error) {
	if p.Encoder == nil {
		return nil, fmt.Errorf("pipeline %s: not fitted", p.Kind)
	}
	x, err := p.Encoder.Transform(row)
	if err != nil {
		return nil, err
	}
	return p.Model.PredictProba(x), nil
}

// Predict returns the most probable class. Ties go to the class listed first.
func (p *Pipeline) Predict(row match.FeatureRow) (match.Candidate, error) {
	proba, err := p.PredictProba(row)
	if err != nil {
		return "", err
	}
	best := p.Classes[0]
	for _, c := range p.Classes[1:] {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return best, nil
}

// PredictAll predicts every row.
func (p *Pipeline) PredictAll(rows []match.FeatureRow) ([]match.Candidate, error) {
	out := make([]match.Candidate, len(rows))
	for i, r := range rows {
		c, err := p.Predict(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

// Score returns the accuracy of the pipeline on rows.
func (p *Pipeline) Score(rows []match.FeatureRow, labels []match.Candidate) (float64, error) {
	pred, err := p.PredictAll(rows)
	if err != nil {
		return 0, err
	}
	return Accuracy(labels, pred), nil
}

// Columns returns the feature columns the encoder was fitted on.
func (p *Pipeline) Columns() []string {
	if p.Encoder == nil {
		return nil
	}
	return p.Encoder.InputColumns()
}
