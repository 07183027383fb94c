package dataset

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/llm-matchmaker/match"
)

// Row is one labeled scenario: its attributes, the winning candidate and
// every candidate's score.
type Row struct {
	Scenario match.Scenario
	Label    match.Candidate
	Scores   map[match.Candidate]float64
}

// Generate synthesizes spec.Rows labeled rows. Deterministic given the same
// spec: attributes are drawn in column order from the scenario stream, and
// tie-break noise from the noise stream.
func Generate(spec *SynthesisSpec) ([]Row, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid synthesis spec: %w", err)
	}

	rules, err := match.RulesByName(spec.Rules)
	if err != nil {
		return nil, err
	}
	attrs := match.Attributes()
	samplers := make([]CategoricalSampler, len(attrs))
	for i, attr := range attrs {
		s, err := NewCategoricalSampler(spec.Attributes[string(attr)])
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", attr, err)
		}
		samplers[i] = s
	}

	rng := match.NewPartitionedRNG(spec.Seed)
	scenarioRNG := rng.ForSubsystem(match.SubsystemScenario)
	scorer := match.NewScorerWithRules(rules, rng.ForSubsystem(match.SubsystemNoise), spec.NoiseStdDev)

	rows := make([]Row, 0, spec.Rows)
	values := make([]string, len(attrs))
	for n := 0; n < spec.Rows; n++ {
		for i, s := range samplers {
			values[i] = s.Sample(scenarioRNG)
		}
		scenario, err := match.ScenarioFromValues(values)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n, err)
		}
		scored := scorer.Score(scenario)
		rows = append(rows, Row{Scenario: scored.Scenario, Label: scored.Label, Scores: scored.Scores})
	}

	logrus.WithFields(logrus.Fields{
		"rows":  len(rows),
		"seed":  spec.Seed,
		"rules": len(rules),
	}).Debug("synthesized dataset")
	return rows, nil
}

// Labels returns the label column.
func Labels(rows []Row) []match.Candidate {
	out := make([]match.Candidate, len(rows))
	for i, r := range rows {
		out[i] = r.Label
	}
	return out
}

// FeatureRows projects every row onto the contract's feature columns.
func FeatureRows(rows []Row) []match.FeatureRow {
	out := make([]match.FeatureRow, len(rows))
	for i, r := range rows {
		out[i] = match.ContractRow(r.Scenario)
	}
	return out
}
