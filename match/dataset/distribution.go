package dataset

import (
	"fmt"
	"math/rand"
	"sort"
)

// CategoricalSampler draws one categorical token per call.
type CategoricalSampler interface {
	Sample(rng *rand.Rand) string
}

// UniformSampler picks each value with equal probability.
type UniformSampler struct {
	values []string
}

func (s *UniformSampler) Sample(rng *rand.Rand) string {
	return s.values[rng.Intn(len(s.values))]
}

// WeightedSampler draws by inverse CDF over normalized weights.
type WeightedSampler struct {
	values []string
	cdf    []float64
}

// NewWeightedSampler normalizes weights that do not sum to 1.0.
func NewWeightedSampler(values []string, weights []float64) *WeightedSampler {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	cdf := make([]float64, len(weights))
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w / total
		cdf[i] = cumulative
	}
	// Ensure last CDF entry is exactly 1.0
	if len(cdf) > 0 {
		cdf[len(cdf)-1] = 1.0
	}
	return &WeightedSampler{values: append([]string(nil), values...), cdf: cdf}
}

func (s *WeightedSampler) Sample(rng *rand.Rand) string {
	if len(s.values) == 1 {
		return s.values[0]
	}
	idx := sort.SearchFloat64s(s.cdf, rng.Float64())
	if idx >= len(s.values) {
		idx = len(s.values) - 1
	}
	return s.values[idx]
}

// NewCategoricalSampler creates a sampler from an AttributeDist.
func NewCategoricalSampler(d AttributeDist) (CategoricalSampler, error) {
	if len(d.Values) == 0 {
		return nil, fmt.Errorf("distribution has no values")
	}
	switch d.Type {
	case "uniform":
		return &UniformSampler{values: append([]string(nil), d.Values...)}, nil
	case "weighted":
		if len(d.Weights) != len(d.Values) {
			return nil, fmt.Errorf("weighted distribution: %d weights for %d values", len(d.Weights), len(d.Values))
		}
		return NewWeightedSampler(d.Values, d.Weights), nil
	default:
		return nil, fmt.Errorf("unknown distribution type %q", d.Type)
	}
}
