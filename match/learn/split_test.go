package learn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/llm-matchmaker/match"
)

func labelsOf(counts map[match.Candidate]int) []match.Candidate {
	var out []match.Candidate
	for _, c := range match.Candidates() {
		for i := 0; i < counts[c]; i++ {
			out = append(out, c)
		}
	}
	return out
}

func countBy(labels []match.Candidate, idx []int) map[match.Candidate]int {
	out := map[match.Candidate]int{}
	for _, i := range idx {
		out[labels[i]]++
	}
	return out
}

func TestStratifiedSplit_PreservesProportions(t *testing.T) {
	// GIVEN 50/30/20 labels
	labels := labelsOf(map[match.Candidate]int{match.GPT4o: 50, match.Gemini: 30, match.Deepseek: 20})

	// WHEN holding out 30%
	train, test, err := StratifiedSplit(labels, 0.3, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	// THEN each class contributes 30% of its members
	assert.Len(t, test, 30)
	assert.Len(t, train, 70)
	assert.Equal(t, map[match.Candidate]int{match.GPT4o: 15, match.Gemini: 9, match.Deepseek: 6}, countBy(labels, test))

	seen := map[int]bool{}
	for _, i := range append(append([]int(nil), train...), test...) {
		assert.False(t, seen[i], "index %d appears twice", i)
		seen[i] = true
	}
	assert.Len(t, seen, 100)
}

func TestStratifiedSplit_Deterministic(t *testing.T) {
	labels := labelsOf(map[match.Candidate]int{match.Claude2: 12, match.Llama3_70B: 9})
	a, _, err := StratifiedSplit(labels, 0.3, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	b, _, err := StratifiedSplit(labels, 0.3, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStratifiedSplit_Rejects(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, _, err := StratifiedSplit(labelsOf(map[match.Candidate]int{match.GPT4o: 5, match.Gemini: 1}), 0.3, rng)
	assert.Error(t, err, "singleton class")
	_, _, err = StratifiedSplit(labelsOf(map[match.Candidate]int{match.GPT4o: 5}), 1.0, rng)
	assert.Error(t, err, "fraction out of range")
}

func TestStratifiedKFold_Partitions(t *testing.T) {
	labels := labelsOf(map[match.Candidate]int{match.GPT4o: 40, match.Gemini: 35, match.Deepseek: 25})
	folds, err := StratifiedKFold(labels, 5, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	require.Len(t, folds, 5)

	covered := map[int]int{}
	for _, f := range folds {
		assert.Len(t, f.Test, 20)
		assert.Len(t, f.Train, 80)
		inTest := map[int]bool{}
		for _, i := range f.Test {
			inTest[i] = true
			covered[i]++
		}
		for _, i := range f.Train {
			assert.False(t, inTest[i])
		}
		// Every class is represented in every test fold.
		assert.Len(t, countBy(labels, f.Test), 3)
	}
	assert.Len(t, covered, 100)
	for _, n := range covered {
		assert.Equal(t, 1, n)
	}
}

func TestStratifiedKFold_Rejects(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, err := StratifiedKFold(labelsOf(map[match.Candidate]int{match.GPT4o: 10}), 1, rng)
	assert.Error(t, err)
	_, err = StratifiedKFold(labelsOf(map[match.Candidate]int{match.GPT4o: 3}), 5, rng)
	assert.Error(t, err)
}
