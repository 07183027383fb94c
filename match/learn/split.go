package learn

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/inference-sim/llm-matchmaker/match"
)

// Fold is one cross-validation round: indices to fit on and indices to score.
type Fold struct {
	Train []int
	Test  []int
}

// byClass groups sample indices by label, in ascending label order.
func byClass(labels []match.Candidate) [][]int {
	groups := make(map[match.Candidate][]int)
	var keys []match.Candidate
	for i, l := range labels {
		if _, ok := groups[l]; !ok {
			keys = append(keys, l)
		}
		groups[l] = append(groups[l], i)
	}
	sort.Slice(keys, func(i, j int) bool { return candidateLess(keys[i], keys[j]) })
	out := make([][]int, len(keys))
	for i, k := range keys {
		out[i] = groups[k]
	}
	return out
}

func shuffled(idx []int, rng *rand.Rand) []int {
	out := append([]int(nil), idx...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// StratifiedSplit holds out testFraction of every class. Each class needs at
// least two members so both sides see it. Returned indices are sorted.
func StratifiedSplit(labels []match.Candidate, testFraction float64, rng *rand.Rand) (train, test []int, err error) {
	if !(testFraction > 0 && testFraction < 1) {
		return nil, nil, fmt.Errorf("test fraction must be in (0, 1), got %f", testFraction)
	}
	for _, group := range byClass(labels) {
		if len(group) < 2 {
			return nil, nil, fmt.Errorf("class %q has %d member(s); stratified split needs at least 2", labels[group[0]], len(group))
		}
		g := shuffled(group, rng)
		nTest := int(math.Round(testFraction * float64(len(g))))
		nTest = min(max(nTest, 1), len(g)-1)
		test = append(test, g[:nTest]...)
		train = append(train, g[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

// StratifiedKFold deals every class's shuffled members round-robin across k
// folds, continuing where the previous class stopped so fold sizes differ
// by at most one.
func StratifiedKFold(labels []match.Candidate, k int, rng *rand.Rand) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("k must be >= 2, got %d", k)
	}
	if k > len(labels) {
		return nil, fmt.Errorf("cannot split %d samples into %d folds", len(labels), k)
	}
	assign := make([]int, len(labels))
	next := 0
	for _, group := range byClass(labels) {
		for _, i := range shuffled(group, rng) {
			assign[i] = next
			next = (next + 1) % k
		}
	}
	folds := make([]Fold, k)
	for i, f := range assign {
		for j := range folds {
			if j == f {
				folds[j].Test = append(folds[j].Test, i)
			} else {
				folds[j].Train = append(folds[j].Train, i)
			}
		}
	}
	return folds, nil
}

func subset[T any](xs []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = xs[j]
	}
	return out
}
