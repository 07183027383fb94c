package learn

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

const (
	MaxFeaturesSqrt = "sqrt"
	MaxFeaturesLog2 = "log2"
	MaxFeaturesAll  = "all"
)

// validMaxFeatures maps max_features names to validity. Unexported to prevent mutation.
var validMaxFeatures = map[string]bool{
	MaxFeaturesSqrt: true,
	MaxFeaturesLog2: true,
	MaxFeaturesAll:  true,
}

// TreeParams are the CART growth limits shared by single trees and forests.
type TreeParams struct {
	MaxDepth        int    `json:"max_depth" yaml:"max_depth"` // 0 = unlimited
	MinSamplesSplit int    `json:"min_samples_split" yaml:"min_samples_split"`
	MinSamplesLeaf  int    `json:"min_samples_leaf" yaml:"min_samples_leaf"`
	MaxFeatures     string `json:"max_features" yaml:"max_features"`
	MaxLeafNodes    int    `json:"max_leaf_nodes" yaml:"max_leaf_nodes"` // 0 = unlimited, else best-first growth
}

// DefaultTreeParams mirrors the usual random-forest defaults.
func DefaultTreeParams() TreeParams {
	return TreeParams{MinSamplesSplit: 2, MinSamplesLeaf: 1, MaxFeatures: MaxFeaturesSqrt}
}

// Validate checks that all fields are in range.
func (p TreeParams) Validate() error {
	if p.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0 (0 = unlimited), got %d", p.MaxDepth)
	}
	if p.MinSamplesSplit < 2 {
		return fmt.Errorf("min_samples_split must be >= 2, got %d", p.MinSamplesSplit)
	}
	if p.MinSamplesLeaf < 1 {
		return fmt.Errorf("min_samples_leaf must be >= 1, got %d", p.MinSamplesLeaf)
	}
	if !validMaxFeatures[p.MaxFeatures] {
		return fmt.Errorf("unknown max_features %q; valid: sqrt, log2, all", p.MaxFeatures)
	}
	if p.MaxLeafNodes != 0 && p.MaxLeafNodes < 2 {
		return fmt.Errorf("max_leaf_nodes must be 0 (unlimited) or >= 2, got %d", p.MaxLeafNodes)
	}
	return nil
}

func (p TreeParams) featuresPerSplit(n int) int {
	var k int
	switch p.MaxFeatures {
	case MaxFeaturesSqrt:
		k = int(math.Sqrt(float64(n)))
	case MaxFeaturesLog2:
		k = int(math.Log2(float64(n)))
	default:
		k = n
	}
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}
	return k
}

// Node is one node of a fitted tree. Samples with x[Feature] <= Threshold go
// Left. Leaves have Feature == -1 and carry the class distribution in Value.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      int       `json:"left,omitempty"`
	Right     int       `json:"right,omitempty"`
	Value     []float64 `json:"value,omitempty"`
}

func (n *Node) isLeaf() bool { return n.Feature < 0 }

// DecisionTree is a CART classifier with gini impurity.
type DecisionTree struct {
	Params   TreeParams `json:"params"`
	Seed     int64      `json:"seed"`
	NClasses int        `json:"n_classes"`
	Nodes    []Node     `json:"nodes"`
}

// NewDecisionTree returns an unfitted tree.
func NewDecisionTree(params TreeParams, seed int64) *DecisionTree {
	return &DecisionTree{Params: params, Seed: seed}
}

// Fit grows the tree on every row of X.
func (t *DecisionTree) Fit(X [][]float64, y []int, nClasses int) error {
	samples := make([]int, len(y))
	for i := range samples {
		samples[i] = i
	}
	return t.fitSamples(X, y, nClasses, samples, rand.New(rand.NewSource(t.Seed)))
}

// fitSamples grows the tree on the given sample indices. Repeated indices
// count once per occurrence, which is how bootstrap weights are applied.
func (t *DecisionTree) fitSamples(X [][]float64, y []int, nClasses int, samples []int, rng *rand.Rand) error {
	if err := t.Params.Validate(); err != nil {
		return fmt.Errorf("decision tree: %w", err)
	}
	if len(X) != len(y) {
		return fmt.Errorf("decision tree: %d rows but %d labels", len(X), len(y))
	}
	if len(samples) == 0 {
		return fmt.Errorf("decision tree: no samples")
	}
	if nClasses < 1 {
		return fmt.Errorf("decision tree: need at least one class, got %d", nClasses)
	}
	for _, i := range samples {
		if y[i] < 0 || y[i] >= nClasses {
			return fmt.Errorf("decision tree: label %d out of range [0, %d)", y[i], nClasses)
		}
	}

	b := &treeBuilder{
		params:    t.Params,
		X:         X,
		y:         y,
		nClasses:  nClasses,
		nFeatures: len(X[samples[0]]),
		nRoot:     float64(len(samples)),
		rng:       rng,
	}
	t.NClasses = nClasses
	t.Nodes = b.build(samples)
	return nil
}

// PredictProba returns the class distribution of the leaf x falls into.
func (t *DecisionTree) PredictProba(x []float64) []float64 {
	out := make([]float64, t.NClasses)
	copy(out, t.leaf(x).Value)
	return out
}

func (t *DecisionTree) leaf(x []float64) *Node {
	n := &t.Nodes[0]
	for !n.isLeaf() {
		if x[n.Feature] <= n.Threshold {
			n = &t.Nodes[n.Left]
		} else {
			n = &t.Nodes[n.Right]
		}
	}
	return n
}

// Depth returns the length of the longest root-to-leaf path.
func (t *DecisionTree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		n := &t.Nodes[i]
		if n.isLeaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// Leaves returns the number of leaf nodes.
func (t *DecisionTree) Leaves() int {
	count := 0
	for i := range t.Nodes {
		if t.Nodes[i].isLeaf() {
			count++
		}
	}
	return count
}

// validate checks the structural integrity of a deserialized tree.
func (t *DecisionTree) validate(nFeatures int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.isLeaf() {
			if len(n.Value) != t.NClasses {
				return fmt.Errorf("node %d: leaf has %d class values, expected %d", i, len(n.Value), t.NClasses)
			}
			continue
		}
		if n.Feature >= nFeatures {
			return fmt.Errorf("node %d: feature %d out of range [0, %d)", i, n.Feature, nFeatures)
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

type split struct {
	feature     int
	threshold   float64
	improvement float64 // weighted by the node's share of root samples
	left, right []int
}

type frontierEntry struct {
	node    int
	samples []int
	depth   int
	split   *split
}

type treeBuilder struct {
	params    TreeParams
	X         [][]float64
	y         []int
	nClasses  int
	nFeatures int
	nRoot     float64
	rng       *rand.Rand
	nodes     []Node
}

// build grows depth-first, or best-first by impurity improvement when
// MaxLeafNodes is set.
func (b *treeBuilder) build(samples []int) []Node {
	b.nodes = []Node{b.leafNode(samples)}
	frontier := []*frontierEntry{{node: 0, samples: samples, depth: 0, split: b.findSplit(samples, 0)}}
	leaves := 1

	for len(frontier) > 0 {
		var e *frontierEntry
		if b.params.MaxLeafNodes > 0 {
			best := 0
			for i, f := range frontier {
				if improvementOf(f) > improvementOf(frontier[best]) {
					best = i
				}
			}
			e = frontier[best]
			frontier = append(frontier[:best], frontier[best+1:]...)
		} else {
			e = frontier[len(frontier)-1]
			frontier = frontier[:len(frontier)-1]
		}

		if e.split == nil {
			continue
		}
		if b.params.MaxLeafNodes > 0 && leaves >= b.params.MaxLeafNodes {
			continue
		}

		left := len(b.nodes)
		b.nodes = append(b.nodes, b.leafNode(e.split.left))
		right := len(b.nodes)
		b.nodes = append(b.nodes, b.leafNode(e.split.right))
		b.nodes[e.node] = Node{Feature: e.split.feature, Threshold: e.split.threshold, Left: left, Right: right}
		leaves++

		// Right first so the stack expands the left subtree next.
		frontier = append(frontier,
			&frontierEntry{node: right, samples: e.split.right, depth: e.depth + 1, split: b.findSplit(e.split.right, e.depth+1)},
			&frontierEntry{node: left, samples: e.split.left, depth: e.depth + 1, split: b.findSplit(e.split.left, e.depth+1)},
		)
	}
	return b.nodes
}

func improvementOf(e *frontierEntry) float64 {
	if e.split == nil {
		return math.Inf(-1)
	}
	return e.split.improvement
}

func (b *treeBuilder) leafNode(samples []int) Node {
	counts := b.classCounts(samples)
	n := float64(len(samples))
	for i := range counts {
		counts[i] /= n
	}
	return Node{Feature: -1, Value: counts}
}

func (b *treeBuilder) classCounts(samples []int) []float64 {
	counts := make([]float64, b.nClasses)
	for _, i := range samples {
		counts[b.y[i]]++
	}
	return counts
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := c / n
		sum += p * p
	}
	return 1 - sum
}

// findSplit returns the best split of samples, or nil when the node must be a leaf.
func (b *treeBuilder) findSplit(samples []int, depth int) *split {
	p := b.params
	n := len(samples)
	if n < p.MinSamplesSplit || n < 2*p.MinSamplesLeaf {
		return nil
	}
	if p.MaxDepth > 0 && depth >= p.MaxDepth {
		return nil
	}
	counts := b.classCounts(samples)
	parent := gini(counts, float64(n))
	if parent == 0 {
		return nil
	}

	// Draw features until k non-constant ones have been examined.
	k := p.featuresPerSplit(b.nFeatures)
	var best *split
	visited := 0
	for _, f := range b.rng.Perm(b.nFeatures) {
		if visited >= k {
			break
		}
		s, constant := b.bestSplitOn(f, samples, counts, parent)
		if constant {
			continue
		}
		visited++
		if s != nil && (best == nil || s.improvement > best.improvement) {
			best = s
		}
	}
	if best != nil {
		best.improvement *= float64(n) / b.nRoot
	}
	return best
}

func (b *treeBuilder) bestSplitOn(f int, samples []int, counts []float64, parent float64) (*split, bool) {
	sorted := append([]int(nil), samples...)
	sort.SliceStable(sorted, func(i, j int) bool { return b.X[sorted[i]][f] < b.X[sorted[j]][f] })
	n := len(sorted)
	if b.X[sorted[0]][f] == b.X[sorted[n-1]][f] {
		return nil, true
	}

	left := make([]float64, b.nClasses)
	right := append([]float64(nil), counts...)
	minLeaf := b.params.MinSamplesLeaf
	total := float64(n)

	bestPos := -1
	bestImp := math.Inf(-1)
	for i := 0; i < n-1; i++ {
		c := b.y[sorted[i]]
		left[c]++
		right[c]--
		v, next := b.X[sorted[i]][f], b.X[sorted[i+1]][f]
		if v == next {
			continue
		}
		nl, nr := i+1, n-i-1
		if nl < minLeaf || nr < minLeaf {
			continue
		}
		imp := parent - float64(nl)/total*gini(left, float64(nl)) - float64(nr)/total*gini(right, float64(nr))
		if imp > bestImp {
			bestImp, bestPos = imp, i
		}
	}
	if bestPos < 0 {
		return nil, false
	}
	return &split{
		feature:     f,
		threshold:   (b.X[sorted[bestPos]][f] + b.X[sorted[bestPos+1]][f]) / 2,
		improvement: bestImp,
		left:        sorted[:bestPos+1],
		right:       sorted[bestPos+1:],
	}, false
}
