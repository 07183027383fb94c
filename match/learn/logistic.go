package learn

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// LogisticRegression is a multinomial softmax classifier with L2 penalty,
// fitted by L-BFGS. The objective is C * sum(log loss) + 0.5 * ||W||^2;
// intercepts are not penalized.
type LogisticRegression struct {
	C         float64 `json:"c"`
	MaxIter   int     `json:"max_iter"`
	NClasses  int     `json:"n_classes"`
	NFeatures int     `json:"n_features"`
	// Coef holds NClasses rows of NFeatures weights followed by the intercept.
	Coef []float64 `json:"coef"`
}

// NewLogisticRegression returns an unfitted model. Non-positive values pick
// C = 1 and 100 iterations.
func NewLogisticRegression(c float64, maxIter int) *LogisticRegression {
	if c <= 0 {
		c = 1.0
	}
	if maxIter <= 0 {
		maxIter = 100
	}
	return &LogisticRegression{C: c, MaxIter: maxIter}
}

func (m *LogisticRegression) stride() int { return m.NFeatures + 1 }

// Fit minimizes the penalized log loss.
func (m *LogisticRegression) Fit(X [][]float64, y []int, nClasses int) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("logistic regression: %d rows and %d labels", len(X), len(y))
	}
	if nClasses < 1 {
		return fmt.Errorf("logistic regression: need at least one class, got %d", nClasses)
	}
	m.NClasses = nClasses
	m.NFeatures = len(X[0])
	m.Coef = make([]float64, nClasses*m.stride())
	if nClasses == 1 {
		return nil
	}

	problem := optimize.Problem{
		Func: func(w []float64) float64 {
			return m.objective(w, X, y, nil)
		},
		Grad: func(grad, w []float64) {
			m.objective(w, X, y, grad)
		},
	}
	settings := &optimize.Settings{
		MajorIterations:   m.MaxIter,
		GradientThreshold: 1e-4,
	}
	result, err := optimize.Minimize(problem, m.Coef, settings, &optimize.LBFGS{})
	if result == nil {
		return fmt.Errorf("logistic regression: %w", err)
	}
	for _, v := range result.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("logistic regression: optimizer diverged (status %v)", result.Status)
		}
	}
	if err != nil {
		logrus.Debugf("logistic regression stopped early: %v (status %v)", err, result.Status)
	}
	copy(m.Coef, result.X)
	return nil
}

// objective returns the penalized loss at w and, when grad is non-nil, fills it.
func (m *LogisticRegression) objective(w []float64, X [][]float64, y []int, grad []float64) float64 {
	k, s := m.NClasses, m.stride()
	if grad != nil {
		for i := range grad {
			grad[i] = 0
		}
	}
	z := make([]float64, k)
	loss := 0.0
	for i, x := range X {
		m.logits(w, x, z)
		lse := floats.LogSumExp(z)
		loss += lse - z[y[i]]
		if grad == nil {
			continue
		}
		for c := 0; c < k; c++ {
			g := math.Exp(z[c] - lse)
			if c == y[i] {
				g--
			}
			row := grad[c*s : (c+1)*s]
			floats.AddScaled(row[:m.NFeatures], g, x)
			row[m.NFeatures] += g
		}
	}

	penalty := 0.0
	for c := 0; c < k; c++ {
		row := w[c*s : c*s+m.NFeatures]
		penalty += floats.Dot(row, row)
	}
	if grad != nil {
		floats.Scale(m.C, grad)
		for c := 0; c < k; c++ {
			floats.Add(grad[c*s:c*s+m.NFeatures], w[c*s:c*s+m.NFeatures])
		}
	}
	return m.C*loss + 0.5*penalty
}

func (m *LogisticRegression) logits(w, x, z []float64) {
	s := m.stride()
	for c := range z {
		row := w[c*s : (c+1)*s]
		z[c] = floats.Dot(row[:m.NFeatures], x) + row[m.NFeatures]
	}
}

// PredictProba returns the softmax class probabilities for x.
func (m *LogisticRegression) PredictProba(x []float64) []float64 {
	z := make([]float64, m.NClasses)
	if m.NClasses == 1 {
		z[0] = 1
		return z
	}
	m.logits(m.Coef, x, z)
	lse := floats.LogSumExp(z)
	for c := range z {
		z[c] = math.Exp(z[c] - lse)
	}
	return z
}

func (m *LogisticRegression) validate(nFeatures, nClasses int) error {
	if m.NClasses != nClasses {
		return fmt.Errorf("logistic model has %d classes, expected %d", m.NClasses, nClasses)
	}
	if m.NFeatures != nFeatures {
		return fmt.Errorf("logistic model has %d features, expected %d", m.NFeatures, nFeatures)
	}
	if len(m.Coef) != nClasses*m.stride() {
		return fmt.Errorf("logistic model has %d coefficients, expected %d", len(m.Coef), nClasses*m.stride())
	}
	return nil
}
