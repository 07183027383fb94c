package dataset

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/llm-matchmaker/match"
)

// SpecVersion is the current synthesis spec format.
const SpecVersion = "1"

// SynthesisSpec configures dataset synthesis. Loaded from YAML via
// LoadSynthesisSpec(path).
type SynthesisSpec struct {
	Version     string                   `yaml:"version"`
	Seed        int64                    `yaml:"seed"`
	Rows        int                      `yaml:"rows"`
	NoiseStdDev float64                  `yaml:"noise_std_dev"`
	Rules       []string                 `yaml:"rules,omitempty"` // empty = every rule
	Attributes  map[string]AttributeDist `yaml:"attributes"`
}

// AttributeDist is the sampling distribution of one attribute.
type AttributeDist struct {
	Type    string    `yaml:"type"` // "uniform" or "weighted"
	Values  []string  `yaml:"values"`
	Weights []float64 `yaml:"weights,omitempty"`
}

var validDistTypes = map[string]bool{"uniform": true, "weighted": true}

func uniform(values []string) AttributeDist {
	return AttributeDist{Type: "uniform", Values: values}
}

// DefaultSynthesisSpec reproduces the reference generator: 1000 rows from
// seed 42 with noise 0.2. Privacy and hardware are weighted; every other
// attribute is uniform.
func DefaultSynthesisSpec() *SynthesisSpec {
	return &SynthesisSpec{
		Version:     SpecVersion,
		Seed:        42,
		Rows:        1000,
		NoiseStdDev: match.DefaultNoiseStdDev,
		Attributes: map[string]AttributeDist{
			string(match.AttrTaskType):      uniform([]string{"classification", "summarization", "generation", "reasoning", "extraction"}),
			string(match.AttrDomain):        uniform([]string{"general", "legal", "medical", "finance", "ecommerce", "technical"}),
			string(match.AttrInputLanguage): uniform([]string{"pt", "en", "multi"}),
			string(match.AttrPrivacyRequirement): {
				Type:    "weighted",
				Values:  []string{"cloud", "local", "hybrid"},
				Weights: []float64{0.6, 0.25, 0.15},
			},
			string(match.AttrHardwareAvailable): {
				Type:    "weighted",
				Values:  []string{"cpu", "consumer_gpu", "pro_gpu", "edge"},
				Weights: []float64{0.25, 0.45, 0.2, 0.1},
			},
			string(match.AttrHallucinationTolerance): uniform([]string{"low", "medium", "high"}),
			string(match.AttrDeterminismNeeded):      uniform([]string{"0", "1"}),
			string(match.AttrTemperaturePref):        uniform([]string{"low", "medium", "high"}),
			string(match.AttrOutputStyle):            uniform([]string{"creative", "formal", "precise", "factual"}),
		},
	}
}

// LoadSynthesisSpec reads and parses a YAML synthesis spec file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadSynthesisSpec(path string) (*SynthesisSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading synthesis spec: %w", err)
	}
	return ParseSynthesisSpec(data)
}

// ParseSynthesisSpec decodes a synthesis spec from YAML bytes.
func ParseSynthesisSpec(data []byte) (*SynthesisSpec, error) {
	var spec SynthesisSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing synthesis spec: %w", err)
	}
	if spec.Version == "" {
		spec.Version = SpecVersion
	}
	return &spec, nil
}

// MaxRows bounds a single generated dataset.
const MaxRows = 10_000_000

// Validate checks that all fields in the spec are valid.
func (s *SynthesisSpec) Validate() error {
	if s.Version != SpecVersion {
		return fmt.Errorf("unsupported synthesis spec version %q; expected %q", s.Version, SpecVersion)
	}
	if s.Rows <= 0 || s.Rows > MaxRows {
		return fmt.Errorf("rows must be in [1, %d], got %d", MaxRows, s.Rows)
	}
	if math.IsNaN(s.NoiseStdDev) || math.IsInf(s.NoiseStdDev, 0) || s.NoiseStdDev < 0 {
		return fmt.Errorf("noise_std_dev must be a finite non-negative number, got %f", s.NoiseStdDev)
	}
	if _, err := match.RulesByName(s.Rules); err != nil {
		return fmt.Errorf("rules: %w", err)
	}

	known := make(map[string]bool, len(match.Attributes()))
	for _, attr := range match.Attributes() {
		known[string(attr)] = true
		d, ok := s.Attributes[string(attr)]
		if !ok {
			return fmt.Errorf("attributes: missing distribution for %q", attr)
		}
		if err := validateAttributeDist(attr, &d); err != nil {
			return err
		}
	}
	var extra []string
	for name := range s.Attributes {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return fmt.Errorf("attributes: unknown attribute(s) %s", strings.Join(extra, ", "))
	}
	return nil
}

func validateAttributeDist(attr match.Attribute, d *AttributeDist) error {
	prefix := "attributes." + string(attr)
	if !validDistTypes[d.Type] {
		return fmt.Errorf("%s: unknown distribution type %q; valid: uniform, weighted", prefix, d.Type)
	}
	if len(d.Values) == 0 {
		return fmt.Errorf("%s: at least one value required", prefix)
	}
	seen := make(map[string]bool, len(d.Values))
	for _, v := range d.Values {
		if err := match.ValidateValue(attr, v); err != nil {
			return fmt.Errorf("%s: %w", prefix, err)
		}
		if seen[v] {
			return fmt.Errorf("%s: duplicate value %q", prefix, v)
		}
		seen[v] = true
	}
	switch d.Type {
	case "uniform":
		if len(d.Weights) > 0 {
			return fmt.Errorf("%s: uniform distribution takes no weights", prefix)
		}
	case "weighted":
		if len(d.Weights) != len(d.Values) {
			return fmt.Errorf("%s: %d weights for %d values", prefix, len(d.Weights), len(d.Values))
		}
		for i, w := range d.Weights {
			if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
				return fmt.Errorf("%s.weights[%d] must be a finite positive number, got %f", prefix, i, w)
			}
		}
	}
	return nil
}
