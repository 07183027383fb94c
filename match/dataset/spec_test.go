package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/llm-matchmaker/match"
)

func TestDefaultSynthesisSpec_IsValid(t *testing.T) {
	spec := DefaultSynthesisSpec()
	require.NoError(t, spec.Validate())
	assert.Equal(t, int64(42), spec.Seed)
	assert.Equal(t, 1000, spec.Rows)
	assert.Len(t, spec.Attributes, 9)
}

func TestLoadSynthesisSpec_StrictParsing(t *testing.T) {
	// GIVEN a spec with a misspelled key
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 1\nrowz: 10\n"), 0644))

	// WHEN loading
	_, err := LoadSynthesisSpec(path)

	// THEN the typo is rejected
	assert.Error(t, err)
}

func TestParseSynthesisSpec_RoundTripsDefault(t *testing.T) {
	data := []byte(`
seed: 7
rows: 20
noise_std_dev: 0.1
attributes:
  task_type: {type: uniform, values: [reasoning, generation]}
  domain: {type: uniform, values: [general]}
  input_language: {type: uniform, values: [en]}
  privacy_requirement: {type: weighted, values: [cloud, local], weights: [3, 1]}
  hardware_available: {type: uniform, values: [cpu]}
  hallucination_tolerance: {type: uniform, values: [low]}
  determinism_needed: {type: uniform, values: ["0", "1"]}
  temperature_pref: {type: uniform, values: [low]}
  output_style: {type: uniform, values: [formal]}
`)
	spec, err := ParseSynthesisSpec(data)
	require.NoError(t, err)
	assert.Equal(t, SpecVersion, spec.Version, "missing version defaults to current")
	require.NoError(t, spec.Validate())
	assert.Equal(t, []float64{3, 1}, spec.Attributes["privacy_requirement"].Weights)
}

func TestSynthesisSpec_ValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SynthesisSpec)
	}{
		{"zero rows", func(s *SynthesisSpec) { s.Rows = 0 }},
		{"too many rows", func(s *SynthesisSpec) { s.Rows = 1 << 62 }},
		{"negative noise", func(s *SynthesisSpec) { s.NoiseStdDev = -0.1 }},
		{"NaN noise", func(s *SynthesisSpec) { s.NoiseStdDev = math.NaN() }},
		{"bad version", func(s *SynthesisSpec) { s.Version = "9" }},
		{"unknown rule", func(s *SynthesisSpec) { s.Rules = []string{"astrology"} }},
		{"missing attribute", func(s *SynthesisSpec) { delete(s.Attributes, "domain") }},
		{"extra attribute", func(s *SynthesisSpec) { s.Attributes["budget"] = uniform([]string{"low"}) }},
		{"illegal value", func(s *SynthesisSpec) { s.Attributes["domain"] = uniform([]string{"sports"}) }},
		{"duplicate value", func(s *SynthesisSpec) { s.Attributes["domain"] = uniform([]string{"legal", "legal"}) }},
		{"empty values", func(s *SynthesisSpec) { s.Attributes["domain"] = uniform(nil) }},
		{"unknown type", func(s *SynthesisSpec) { s.Attributes["domain"] = AttributeDist{Type: "zipf", Values: []string{"legal"}} }},
		{"uniform with weights", func(s *SynthesisSpec) {
			s.Attributes["domain"] = AttributeDist{Type: "uniform", Values: []string{"legal"}, Weights: []float64{1}}
		}},
		{"weight count mismatch", func(s *SynthesisSpec) {
			s.Attributes["domain"] = AttributeDist{Type: "weighted", Values: []string{"legal", "general"}, Weights: []float64{1}}
		}},
		{"zero weight", func(s *SynthesisSpec) {
			s.Attributes["domain"] = AttributeDist{Type: "weighted", Values: []string{"legal"}, Weights: []float64{0}}
		}},
		{"infinite weight", func(s *SynthesisSpec) {
			s.Attributes["domain"] = AttributeDist{Type: "weighted", Values: []string{"legal"}, Weights: []float64{math.Inf(1)}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := DefaultSynthesisSpec()
			tt.mutate(spec)
			assert.Error(t, spec.Validate())
		})
	}
}

func TestSynthesisSpec_IllegalValueUsesSchemaGate(t *testing.T) {
	spec := DefaultSynthesisSpec()
	spec.Attributes["output_style"] = uniform([]string{"poetic"})
	assert.ErrorIs(t, spec.Validate(), match.ErrInvalidAttributeValue)
}
