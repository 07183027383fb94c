package learn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inference-sim/llm-matchmaker/match"
	"github.com/inference-sim/llm-matchmaker/match/dataset"
)

// synthBlobs returns n one-hot rows over three 3-valued features where the
// label equals the first feature's value, with 10% of labels flipped.
func synthBlobs(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		x := make([]float64, 9)
		vals := [3]int{rng.Intn(3), rng.Intn(3), rng.Intn(3)}
		for f, v := range vals {
			x[f*3+v] = 1
		}
		X[i] = x
		y[i] = vals[0]
		if rng.Float64() < 0.1 {
			y[i] = rng.Intn(3)
		}
	}
	return X, y
}

// generatedRows synthesizes a labeled dataset through the real generator.
func generatedRows(t *testing.T, n int) ([]match.FeatureRow, []match.Candidate) {
	t.Helper()
	spec := dataset.DefaultSynthesisSpec()
	spec.Rows = n
	rows, err := dataset.Generate(spec)
	require.NoError(t, err)
	return dataset.FeatureRows(rows), dataset.Labels(rows)
}

func smallForest() ForestParams {
	p := DefaultForestParams()
	p.NEstimators = 15
	return p
}
