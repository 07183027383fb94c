package learn

import (
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// ForestParams configures a random forest.
type ForestParams struct {
	NEstimators int        `json:"n_estimators" yaml:"n_estimators"`
	Bootstrap   bool       `json:"bootstrap" yaml:"bootstrap"`
	Tree        TreeParams `json:"tree" yaml:",inline"`
}

// DefaultForestParams returns 100 bootstrapped trees with default tree limits.
func DefaultForestParams() ForestParams {
	return ForestParams{NEstimators: 100, Bootstrap: true, Tree: DefaultTreeParams()}
}

// Validate checks that all fields are in range.
func (p ForestParams) Validate() error {
	if p.NEstimators < 1 {
		return fmt.Errorf("n_estimators must be >= 1, got %d", p.NEstimators)
	}
	return p.Tree.Validate()
}

func (p ForestParams) String() string {
	return fmt.Sprintf("n_estimators=%d bootstrap=%t max_depth=%s min_samples_split=%d min_samples_leaf=%d max_features=%s max_leaf_nodes=%s",
		p.NEstimators, p.Bootstrap, unlimited(p.Tree.MaxDepth), p.Tree.MinSamplesSplit,
		p.Tree.MinSamplesLeaf, p.Tree.MaxFeatures, unlimited(p.Tree.MaxLeafNodes))
}

func unlimited(v int) string {
	if v == 0 {
		return "none"
	}
	return fmt.Sprint(v)
}

// RandomForest averages the leaf distributions of independently grown trees.
type RandomForest struct {
	Params   ForestParams    `json:"params"`
	Seed     int64           `json:"seed"`
	NClasses int             `json:"n_classes"`
	Trees    []*DecisionTree `json:"trees"`

	// Parallelism bounds concurrent tree fitting. <= 0 means one at a time.
	Parallelism int `json:"-"`
}

// NewRandomForest returns an unfitted forest.
func NewRandomForest(params ForestParams, seed int64, parallelism int) *RandomForest {
	return &RandomForest{Params: params, Seed: seed, Parallelism: parallelism}
}

// Fit grows NEstimators trees. Tree seeds are drawn sequentially from the
// forest seed before any tree starts, so the result does not depend on
// scheduling.
func (f *RandomForest) Fit(X [][]float64, y []int, nClasses int) error {
	if err := f.Params.Validate(); err != nil {
		return fmt.Errorf("random forest: %w", err)
	}
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("random forest: %d rows and %d labels", len(X), len(y))
	}

	seedRNG := rand.New(rand.NewSource(f.Seed))
	seeds := make([]int64, f.Params.NEstimators)
	for i := range seeds {
		seeds[i] = seedRNG.Int63()
	}

	trees := make([]*DecisionTree, len(seeds))
	g := new(errgroup.Group)
	g.SetLimit(max(1, f.Parallelism))
	for i := range trees {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seeds[i]))
			samples := make([]int, len(y))
			for j := range samples {
				if f.Params.Bootstrap {
					samples[j] = rng.Intn(len(y))
				} else {
					samples[j] = j
				}
			}
			t := NewDecisionTree(f.Params.Tree, seeds[i])
			if err := t.fitSamples(X, y, nClasses, samples, rng); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
			trees[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("random forest: %w", err)
	}
	f.Trees = trees
	f.NClasses = nClasses
	return nil
}

// PredictProba averages the trees' class distributions.
func (f *RandomForest) PredictProba(x []float64) []float64 {
	out := make([]float64, f.NClasses)
	for _, t := range f.Trees {
		leaf := t.leaf(x)
		for k, v := range leaf.Value {
			out[k] += v
		}
	}
	n := float64(len(f.Trees))
	for k := range out {
		out[k] /= n
	}
	return out
}

// MaxTreeDepth returns the depth of the deepest tree.
func (f *RandomForest) MaxTreeDepth() int {
	var d int
	for _, t := range f.Trees {
		d = max(d, t.Depth())
	}
	return d
}

func (f *RandomForest) validate(nFeatures, nClasses int) error {
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	if f.NClasses != nClasses {
		return fmt.Errorf("forest has %d classes, expected %d", f.NClasses, nClasses)
	}
	for i, t := range f.Trees {
		if t == nil {
			return fmt.Errorf("tree %d is missing", i)
		}
		if t.NClasses != nClasses {
			return fmt.Errorf("tree %d has %d classes, expected %d", i, t.NClasses, nClasses)
		}
		if err := t.validate(nFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}
