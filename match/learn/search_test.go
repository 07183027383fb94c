package learn

import (
	"context"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyGrid() ParamGrid {
	return ParamGrid{
		NEstimators:     []int{8},
		MaxDepth:        []int{1, 0},
		MinSamplesSplit: []int{2},
		MinSamplesLeaf:  []int{1},
		MaxFeatures:     []string{MaxFeaturesSqrt},
		Bootstrap:       []bool{true},
		MaxLeafNodes:    []int{0, 20},
	}
}

func TestParamGrid_SizeAndDecode(t *testing.T) {
	g := DefaultParamGrid()
	assert.Equal(t, 972, g.Size())
	require.NoError(t, g.Validate())

	first := g.At(0)
	assert.Equal(t, 100, first.NEstimators)
	assert.Equal(t, 0, first.Tree.MaxDepth)
	assert.Equal(t, MaxFeaturesSqrt, first.Tree.MaxFeatures)
	assert.True(t, first.Bootstrap)

	last := g.At(g.Size() - 1)
	assert.Equal(t, 300, last.NEstimators)
	assert.Equal(t, 20, last.Tree.MaxDepth)
	assert.Equal(t, 10, last.Tree.MinSamplesSplit)
	assert.Equal(t, 4, last.Tree.MinSamplesLeaf)
	assert.Equal(t, MaxFeaturesAll, last.Tree.MaxFeatures)
	assert.False(t, last.Bootstrap)
	assert.Equal(t, 100, last.Tree.MaxLeafNodes)

	// The last parameter varies fastest.
	assert.Equal(t, 50, g.At(1).Tree.MaxLeafNodes)
}

func TestParamGrid_ValidateRejects(t *testing.T) {
	g := DefaultParamGrid()
	g.MaxFeatures = nil
	assert.Error(t, g.Validate())

	g = DefaultParamGrid()
	g.MinSamplesLeaf = []int{1, 0}
	assert.Error(t, g.Validate())
}

func TestRandomizedSearch_SampleDistinctAndCapped(t *testing.T) {
	s := &RandomizedSearch{Grid: DefaultParamGrid(), NIter: 5000}
	params := s.Sample(rand.New(rand.NewSource(42)))
	assert.Len(t, params, 972)

	seen := map[string]bool{}
	for _, p := range params {
		key := p.String()
		assert.False(t, seen[key], "duplicate %s", key)
		seen[key] = true
	}
}

func TestRandomizedSearch_RunPicksHighestMean(t *testing.T) {
	// GIVEN a four-combination grid and 3 folds
	rows, labels := generatedRows(t, 240)
	folds, err := StratifiedKFold(labels, 3, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	s := &RandomizedSearch{Grid: tinyGrid(), NIter: 10, Seed: 42, Parallelism: 2, Log: logger}

	// WHEN searching
	res, err := s.Run(context.Background(), rand.New(rand.NewSource(42)), rows, labels, folds)
	require.NoError(t, err)

	// THEN every combination is scored and the best has the top mean
	require.Len(t, res.Candidates, 4)
	best := res.BestCandidate()
	for i, c := range res.Candidates {
		assert.Len(t, c.CV.Scores, 3)
		assert.LessOrEqual(t, c.CV.Mean, best.CV.Mean)
		if c.CV.Mean == best.CV.Mean {
			assert.GreaterOrEqual(t, i, res.Best, "ties go to the earliest candidate")
		}
	}
}

func TestRandomizedSearch_Deterministic(t *testing.T) {
	rows, labels := generatedRows(t, 150)
	folds, err := StratifiedKFold(labels, 3, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	run := func(par int) *SearchResult {
		s := &RandomizedSearch{Grid: tinyGrid(), NIter: 3, Seed: 7, Parallelism: par}
		res, err := s.Run(context.Background(), rand.New(rand.NewSource(9)), rows, labels, folds)
		require.NoError(t, err)
		return res
	}
	assert.Equal(t, run(1), run(3))
}

func TestRandomizedSearch_CanceledContext(t *testing.T) {
	rows, labels := generatedRows(t, 60)
	folds, err := StratifiedKFold(labels, 2, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &RandomizedSearch{Grid: tinyGrid(), NIter: 2, Seed: 1, Parallelism: 1}
	_, err = s.Run(ctx, rand.New(rand.NewSource(1)), rows, labels, folds)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRandomizedSearch_RejectsZeroIterations(t *testing.T) {
	s := &RandomizedSearch{Grid: tinyGrid()}
	_, err := s.Run(context.Background(), rand.New(rand.NewSource(1)), nil, nil, nil)
	assert.Error(t, err)
}
