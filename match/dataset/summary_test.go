package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/llm-matchmaker/match"
)

func TestSummarize_CountsLabelsAndValues(t *testing.T) {
	// GIVEN three rows with two labels
	base := match.Scenario{
		TaskType:               match.TaskReasoning,
		Domain:                 match.DomainLegal,
		InputLanguage:          match.LangEnglish,
		PrivacyRequirement:     match.PrivacyCloud,
		HardwareAvailable:      match.HardwareProGPU,
		HallucinationTolerance: match.HallucinationLow,
		TemperaturePref:        match.TemperatureLow,
		OutputStyle:            match.StylePrecise,
	}
	other := base
	other.Domain = match.DomainMedical
	rows := []Row{
		{Scenario: base, Label: match.Claude2},
		{Scenario: base, Label: match.Claude2},
		{Scenario: other, Label: match.Gemini},
	}

	// WHEN summarizing
	s := Summarize(rows)

	// THEN labels and values are tallied, most frequent first
	assert.Equal(t, 3, s.Rows)
	assert.InDelta(t, 2.0/3.0, s.LabelShare(match.Claude2), 1e-12)
	assert.Equal(t, []ValueCount{{"legal", 2}, {"medical", 1}}, s.ValueCounts(match.AttrDomain))
	assert.Equal(t, []ValueCount{{"0", 3}}, s.ValueCounts(match.AttrDeterminismNeeded))

	labels := s.LabelCounts()
	require.Len(t, labels, len(match.Candidates()))
	assert.Equal(t, ValueCount{Value: "Claude-2", Count: 2}, labels[0])
	assert.Equal(t, ValueCount{Value: "Gemini", Count: 1}, labels[1])
	assert.Zero(t, labels[4].Count)
}

func TestSummary_NilSafe(t *testing.T) {
	var s *Summary
	assert.Zero(t, s.LabelShare(match.Gemini))
	assert.Nil(t, s.ValueCounts(match.AttrDomain))
	assert.Nil(t, s.LabelCounts())

	empty := Summarize(nil)
	assert.Zero(t, empty.LabelShare(match.Gemini))
	assert.Len(t, empty.LabelCounts(), len(match.Candidates()))
}
