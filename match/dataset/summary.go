package dataset

import (
	"sort"

	"github.com/inference-sim/llm-matchmaker/match"
)

// Summary counts labels and attribute values across a dataset.
type Summary struct {
	Rows       int
	Labels     map[match.Candidate]int
	Attributes map[match.Attribute]map[string]int
}

// Summarize tallies rows. Returns an empty summary for no rows.
func Summarize(rows []Row) *Summary {
	s := &Summary{
		Rows:       len(rows),
		Labels:     make(map[match.Candidate]int, len(match.Candidates())),
		Attributes: make(map[match.Attribute]map[string]int, len(match.Attributes())),
	}
	for _, a := range match.Attributes() {
		s.Attributes[a] = make(map[string]int)
	}
	for _, r := range rows {
		s.Labels[r.Label]++
		for _, a := range match.Attributes() {
			s.Attributes[a][r.Scenario.Value(a)]++
		}
	}
	return s
}

// LabelShare returns the fraction of rows labeled c. Nil-safe.
func (s *Summary) LabelShare(c match.Candidate) float64 {
	if s == nil || s.Rows == 0 {
		return 0
	}
	return float64(s.Labels[c]) / float64(s.Rows)
}

// ValueCount is one entry of a value_counts listing.
type ValueCount struct {
	Value string
	Count int
}

// ValueCounts lists an attribute's values by descending count, ties broken
// by value. Nil-safe.
func (s *Summary) ValueCounts(a match.Attribute) []ValueCount {
	if s == nil {
		return nil
	}
	var out []ValueCount
	for v, n := range s.Attributes[a] {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sortCounts(out)
	return out
}

// LabelCounts lists candidates by descending label count. Candidates that
// never win are included with zero. Nil-safe.
func (s *Summary) LabelCounts() []ValueCount {
	if s == nil {
		return nil
	}
	out := make([]ValueCount, 0, len(match.Candidates()))
	for _, c := range match.Candidates() {
		out = append(out, ValueCount{Value: string(c), Count: s.Labels[c]})
	}
	sortCounts(out)
	return out
}

func sortCounts(vc []ValueCount) {
	sort.SliceStable(vc, func(i, j int) bool {
		if vc[i].Count != vc[j].Count {
			return vc[i].Count > vc[j].Count
		}
		return vc[i].Value < vc[j].Value
	})
}
