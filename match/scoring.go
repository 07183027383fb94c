package match

// NoiseSource draws standard-normal variates. *rand.Rand satisfies it.
type NoiseSource interface {
	NormFloat64() float64
}

// DefaultNoiseStdDev is the standard deviation of the tie-break noise.
const DefaultNoiseStdDev = 0.2

// ScoredScenario is a scenario with its per-candidate scores and the argmax label.
type ScoredScenario struct {
	Scenario Scenario
	Scores   map[Candidate]float64
	Label    Candidate
}

// BaseScore returns the noise-free score of a candidate under DefaultRules.
func BaseScore(s Scenario, c Candidate) float64 {
	return foldRules(DefaultRules(), s, c)
}

// Breakdown returns the per-rule deltas that make up BaseScore, in rule order.
// Rules that contribute nothing are included with a zero delta.
func Breakdown(s Scenario, c Candidate) []Contribution {
	rules := DefaultRules()
	out := make([]Contribution, len(rules))
	for i, r := range rules {
		out[i] = Contribution{Rule: r.Name, Delta: r.Delta(s, c)}
	}
	return out
}

func foldRules(rules []Rule, s Scenario, c Candidate) float64 {
	var total float64
	for _, r := range rules {
		total += r.Delta(s, c)
	}
	return total
}

// Scorer adds seeded Gaussian noise to the rule fold and picks the best candidate.
// Not safe for concurrent use: the noise source is consumed in call order.
type Scorer struct {
	rules  []Rule
	noise  NoiseSource
	stdDev float64
}

// NewScorer returns a Scorer over DefaultRules. A nil noise source disables noise.
func NewScorer(noise NoiseSource, stdDev float64) *Scorer {
	return NewScorerWithRules(DefaultRules(), noise, stdDev)
}

// NewScorerWithRules returns a Scorer over an explicit rule list.
func NewScorerWithRules(rules []Rule, noise NoiseSource, stdDev float64) *Scorer {
	return &Scorer{rules: rules, noise: noise, stdDev: stdDev}
}

// Score computes all five candidate scores and the label.
// Noise is drawn exactly once per candidate, in Candidates() order, so the
// stream position after n calls is always 5n draws.
func (sc *Scorer) Score(s Scenario) ScoredScenario {
	cands := Candidates()
	scores := make(map[Candidate]float64, len(cands))
	var (
		best      Candidate
		bestScore float64
	)
	for i, c := range cands {
		v := foldRules(sc.rules, s, c)
		if sc.noise != nil {
			v += sc.noise.NormFloat64() * sc.stdDev
		}
		scores[c] = v
		// Strict > keeps the earliest candidate on exact ties.
		if i == 0 || v > bestScore {
			best, bestScore = c, v
		}
	}
	return ScoredScenario{Scenario: s, Scores: scores, Label: best}
}

// Argmax returns the candidate with the highest score, iterating in
// Candidates() order with a strict comparison. Missing candidates are skipped.
func Argmax(scores map[Candidate]float64) Candidate {
	var (
		best      Candidate
		bestScore float64
		found     bool
	)
	for _, c := range Candidates() {
		v, ok := scores[c]
		if !ok {
			continue
		}
		if !found || v > bestScore {
			best, bestScore, found = c, v, true
		}
	}
	return best
}
