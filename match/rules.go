package match

import (
	"fmt"
	"strings"
)

// RuleFunc computes the score delta a single rule contributes to one candidate.
// Rules are pure: they depend only on their arguments.
type RuleFunc func(s Scenario, c Candidate) float64

// Rule is one named, independently testable term of the additive score.
type Rule struct {
	Name  string
	Delta RuleFunc
}

// Contribution is the delta one rule added to a candidate's score.
type Contribution struct {
	Rule  string  `json:"rule" yaml:"rule"`
	Delta float64 `json:"delta" yaml:"delta"`
}

const (
	RuleTaskStrength    = "task-strength"
	RuleSensitiveDomain = "sensitive-domain"
	RuleLanguageSupport = "language-support"
	RulePrivacy         = "privacy"
	RuleHardware        = "hardware"
	RuleHallucination   = "hallucination"
	RuleDeterminism     = "determinism"
	RuleOutputStyle     = "output-style"
)

// validRuleNames maps rule names to validity. Unexported to prevent mutation.
var validRuleNames = map[string]bool{
	RuleTaskStrength:    true,
	RuleSensitiveDomain: true,
	RuleLanguageSupport: true,
	RulePrivacy:         true,
	RuleHardware:        true,
	RuleHallucination:   true,
	RuleDeterminism:     true,
	RuleOutputStyle:     true,
}

// IsValidRule returns true if name is a recognized rule.
func IsValidRule(name string) bool { return validRuleNames[name] }

// ValidRuleNames returns sorted valid rule names.
func ValidRuleNames() []string { return validNamesList(validRuleNames) }

// DefaultRules returns the full rule list in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleTaskStrength, Delta: ruleTaskStrength},
		{Name: RuleSensitiveDomain, Delta: ruleSensitiveDomain},
		{Name: RuleLanguageSupport, Delta: ruleLanguageSupport},
		{Name: RulePrivacy, Delta: rulePrivacy},
		{Name: RuleHardware, Delta: ruleHardware},
		{Name: RuleHallucination, Delta: ruleHallucination},
		{Name: RuleDeterminism, Delta: ruleDeterminism},
		{Name: RuleOutputStyle, Delta: ruleOutputStyle},
	}
}

// RulesByName returns the named subset of DefaultRules, preserving the
// default evaluation order. An empty list selects every rule. Unknown or
// duplicate names are an error.
func RulesByName(names []string) ([]Rule, error) {
	if len(names) == 0 {
		return DefaultRules(), nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if !IsValidRule(n) {
			return nil, fmt.Errorf("unknown rule %q; valid: %s", n, strings.Join(ValidRuleNames(), ", "))
		}
		if want[n] {
			return nil, fmt.Errorf("duplicate rule %q; each rule may appear at most once", n)
		}
		want[n] = true
	}
	var rules []Rule
	for _, r := range DefaultRules() {
		if want[r.Name] {
			rules = append(rules, r)
		}
	}
	return rules, nil
}

// ruleTaskStrength: +2.0 when the task type is one of the candidate's strengths.
func ruleTaskStrength(s Scenario, c Candidate) float64 {
	if capabilities[c].hasStrength(s.TaskType) {
		return 2.0
	}
	return 0
}

// ruleSensitiveDomain: legal/medical/finance favor careful reasoners, and
// efficient models a little.
func ruleSensitiveDomain(s Scenario, c Candidate) float64 {
	if !s.Domain.IsSensitive() {
		return 0
	}
	switch {
	case carefulReasoning[c]:
		return 1.5
	case efficient[c]:
		return 0.5
	}
	return 0
}

func ruleLanguageSupport(s Scenario, c Candidate) float64 {
	if capabilities[c].speaks(s.InputLanguage) {
		return 1.0
	}
	return -0.5
}

func rulePrivacy(s Scenario, c Candidate) float64 {
	offline := capabilities[c].Offline
	switch s.PrivacyRequirement {
	case PrivacyLocal:
		if offline {
			return 2.0
		}
		return -2.0
	case PrivacyHybrid:
		if offline {
			return 0.8
		}
		return 0
	case PrivacyCloud:
		return 0
	}
	return 0
}

func ruleHardware(s Scenario, c Candidate) float64 {
	switch s.HardwareAvailable {
	case HardwareEdge:
		if edgeFriendly[c] {
			return 1.5
		}
		return -1.0
	case HardwareCPU:
		if cpuFriendly[c] {
			return 0.8
		}
		return -0.8
	case HardwareConsumerGPU, HardwareProGPU:
		return 0
	}
	return 0
}

func ruleHallucination(s Scenario, c Candidate) float64 {
	switch s.HallucinationTolerance {
	case HallucinationLow:
		if lowHallucination[c] {
			return 1.0
		}
		return -0.5
	case HallucinationMedium, HallucinationHigh:
		return 0
	}
	return 0
}

// ruleDeterminism is a flat bonus: it shifts every candidate equally.
func ruleDeterminism(s Scenario, _ Candidate) float64 {
	if s.DeterminismNeeded && s.TemperaturePref == TemperatureLow {
		return 0.3
	}
	return 0
}

func ruleOutputStyle(s Scenario, c Candidate) float64 {
	switch s.OutputStyle {
	case StyleCreative:
		if creativeLeaning[c] {
			return 0.7
		}
	case StylePrecise, StyleFactual:
		if precisionLeaning[c] {
			return 0.7
		}
	case StyleFormal:
	}
	return 0
}
