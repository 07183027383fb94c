package learn

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/llm-matchmaker/match"
)

// CVResult holds per-fold accuracy and its summary.
type CVResult struct {
	Scores []float64 `json:"scores" yaml:"scores"`
	Mean   float64   `json:"mean" yaml:"mean"`
	Std    float64   `json:"std" yaml:"std"`
}

// CrossValidate fits a fresh pipeline per fold and scores it on the held-out
// part. Folds run sequentially; ctx is checked between folds.
func CrossValidate(ctx context.Context, newPipeline func() *Pipeline, rows []match.FeatureRow, labels []match.Candidate, folds []Fold) (*CVResult, error) {
	scores := make([]float64, len(folds))
	for i, f := range folds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := newPipeline()
		if err := p.Fit(subset(rows, f.Train), subset(labels, f.Train)); err != nil {
			return nil, fmt.Errorf("fold %d: %w", i, err)
		}
		acc, err := p.Score(subset(rows, f.Test), subset(labels, f.Test))
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", i, err)
		}
		scores[i] = acc
	}
	mean, std := MeanStd(scores)
	return &CVResult{Scores: scores, Mean: mean, Std: std}, nil
}

// ParamGrid lists the candidate values of every forest parameter. Zero in
// MaxDepth or MaxLeafNodes means unlimited.
type ParamGrid struct {
	NEstimators     []int    `yaml:"n_estimators"`
	MaxDepth        []int    `yaml:"max_depth"`
	MinSamplesSplit []int    `yaml:"min_samples_split"`
	MinSamplesLeaf  []int    `yaml:"min_samples_leaf"`
	MaxFeatures     []string `yaml:"max_features"`
	Bootstrap       []bool   `yaml:"bootstrap"`
	MaxLeafNodes    []int    `yaml:"max_leaf_nodes"`
}

// DefaultParamGrid is the 972-combination grid searched by default.
func DefaultParamGrid() ParamGrid {
	return ParamGrid{
		NEstimators:     []int{100, 300},
		MaxDepth:        []int{0, 10, 20},
		MinSamplesSplit: []int{2, 5, 10},
		MinSamplesLeaf:  []int{1, 2, 4},
		MaxFeatures:     []string{MaxFeaturesSqrt, MaxFeaturesLog2, MaxFeaturesAll},
		Bootstrap:       []bool{true, false},
		MaxLeafNodes:    []int{0, 50, 100},
	}
}

func (g ParamGrid) dims() []int {
	return []int{
		len(g.NEstimators), len(g.MaxDepth), len(g.MinSamplesSplit), len(g.MinSamplesLeaf),
		len(g.MaxFeatures), len(g.Bootstrap), len(g.MaxLeafNodes),
	}
}

// Size is the number of parameter combinations.
func (g ParamGrid) Size() int {
	n := 1
	for _, d := range g.dims() {
		n *= d
	}
	return n
}

// At decodes combination i, with the last parameter varying fastest.
func (g ParamGrid) At(i int) ForestParams {
	dims := g.dims()
	pos := make([]int, len(dims))
	for d := len(dims) - 1; d >= 0; d-- {
		pos[d] = i % dims[d]
		i /= dims[d]
	}
	return ForestParams{
		NEstimators: g.NEstimators[pos[0]],
		Bootstrap:   g.Bootstrap[pos[5]],
		Tree: TreeParams{
			MaxDepth:        g.MaxDepth[pos[1]],
			MinSamplesSplit: g.MinSamplesSplit[pos[2]],
			MinSamplesLeaf:  g.MinSamplesLeaf[pos[3]],
			MaxFeatures:     g.MaxFeatures[pos[4]],
			MaxLeafNodes:    g.MaxLeafNodes[pos[6]],
		},
	}
}

// Validate checks every listed value.
func (g ParamGrid) Validate() error {
	names := []string{"n_estimators", "max_depth", "min_samples_split", "min_samples_leaf", "max_features", "bootstrap", "max_leaf_nodes"}
	for i, d := range g.dims() {
		if d == 0 {
			return fmt.Errorf("param grid: %s has no values", names[i])
		}
	}
	base := g.At(0)
	check := func(p ForestParams) error {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("param grid: %w", err)
		}
		return nil
	}
	for _, v := range g.NEstimators {
		p := base
		p.NEstimators = v
		if err := check(p); err != nil {
			return err
		}
	}
	for _, v := range g.MaxDepth {
		p := base
		p.Tree.MaxDepth = v
		if err := check(p); err != nil {
			return err
		}
	}
	for _, v := range g.MinSamplesSplit {
		p := base
		p.Tree.MinSamplesSplit = v
		if err := check(p); err != nil {
			return err
		}
	}
	for _, v := range g.MinSamplesLeaf {
		p := base
		p.Tree.MinSamplesLeaf = v
		if err := check(p); err != nil {
			return err
		}
	}
	for _, v := range g.MaxFeatures {
		p := base
		p.Tree.MaxFeatures = v
		if err := check(p); err != nil {
			return err
		}
	}
	for _, v := range g.MaxLeafNodes {
		p := base
		p.Tree.MaxLeafNodes = v
		if err := check(p); err != nil {
			return err
		}
	}
	return nil
}

// SearchCandidate is one sampled parameter combination and its CV score.
type SearchCandidate struct {
	Params ForestParams `json:"params" yaml:"params"`
	CV     *CVResult    `json:"cv" yaml:"cv"`
}

// SearchResult lists every evaluated candidate in sampling order.
type SearchResult struct {
	Candidates []SearchCandidate `json:"candidates"`
	Best       int               `json:"best"`
}

// BestCandidate returns the winning candidate.
func (r *SearchResult) BestCandidate() SearchCandidate {
	return r.Candidates[r.Best]
}

// RandomizedSearch samples parameter combinations without replacement and
// keeps the one with the highest mean CV accuracy. Every forest uses Seed.
type RandomizedSearch struct {
	Grid        ParamGrid
	NIter       int
	Seed        int64
	Parallelism int
	Log         logrus.FieldLogger
}

// Sample draws min(NIter, grid size) distinct combinations.
func (s *RandomizedSearch) Sample(rng *rand.Rand) []ForestParams {
	size := s.Grid.Size()
	n := min(s.NIter, size)
	perm := rng.Perm(size)[:n]
	out := make([]ForestParams, n)
	for i, idx := range perm {
		out[i] = s.Grid.At(idx)
	}
	return out
}

// Run evaluates the sampled candidates concurrently, bounded by Parallelism.
// Ties in mean accuracy go to the candidate sampled first.
func (s *RandomizedSearch) Run(ctx context.Context, rng *rand.Rand, rows []match.FeatureRow, labels []match.Candidate, folds []Fold) (*SearchResult, error) {
	if s.NIter < 1 {
		return nil, fmt.Errorf("randomized search: n_iter must be >= 1, got %d", s.NIter)
	}
	if err := s.Grid.Validate(); err != nil {
		return nil, err
	}
	log := s.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	candidates := s.Sample(rng)
	results := make([]SearchCandidate, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.Parallelism))
	for i, params := range candidates {
		g.Go(func() error {
			cv, err := CrossValidate(gctx, func() *Pipeline {
				return NewForestPipeline(params, s.Seed, 1)
			}, rows, labels, folds)
			if err != nil {
				return fmt.Errorf("candidate %d (%s): %w", i, params, err)
			}
			results[i] = SearchCandidate{Params: params, CV: cv}
			log.WithFields(logrus.Fields{"candidate": i, "mean": cv.Mean}).Debugf("evaluated %s", params)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("randomized search: %w", err)
	}

	best := 0
	for i := range results {
		if results[i].CV.Mean > results[best].CV.Mean {
			best = i
		}
	}
	return &SearchResult{Candidates: results, Best: best}, nil
}
