package match

// Candidate is one of the five fixed model identifiers a scenario can be matched to.
type Candidate string

const (
	GPT4o      Candidate = "GPT-4o"
	Gemini     Candidate = "Gemini"
	Claude2    Candidate = "Claude-2"
	Llama3_70B Candidate = "Llama-3-70B"
	Deepseek   Candidate = "Deepseek"
)

// Candidates returns the candidate set in its fixed order. Scoring iterates in
// this order, so ties after noise resolve to the earliest candidate.
func Candidates() []Candidate {
	return []Candidate{GPT4o, Gemini, Claude2, Llama3_70B, Deepseek}
}

// IsValid reports whether c is one of the five candidates.
func (c Candidate) IsValid() bool {
	switch c {
	case GPT4o, Gemini, Claude2, Llama3_70B, Deepseek:
		return true
	}
	return false
}

// ParseCandidate validates a label token.
func ParseCandidate(raw string) (Candidate, error) {
	c := Candidate(raw)
	if !c.IsValid() {
		return "", &InvalidAttributeValueError{Attribute: "best_model", Value: raw, Legal: toStrings(Candidates())}
	}
	return c, nil
}

// Capability is the hypothetical, simplified profile of a candidate used by the
// scoring rules.
type Capability struct {
	Strengths []TaskType
	Languages []InputLanguage
	Offline   bool
}

// capabilities is unexported so the table cannot be mutated by callers.
var capabilities = map[Candidate]Capability{
	GPT4o: {
		Strengths: []TaskType{TaskReasoning, TaskSummarization},
		Languages: []InputLanguage{LangEnglish, LangPortuguese, LangMulti},
	},
	Gemini: {
		Strengths: []TaskType{TaskSummarization, TaskGeneration},
		Languages: []InputLanguage{LangEnglish, LangPortuguese, LangMulti},
	},
	Claude2: {
		Strengths: []TaskType{TaskReasoning, TaskClassification},
		Languages: []InputLanguage{LangEnglish, LangMulti},
	},
	Llama3_70B: {
		Strengths: []TaskType{TaskExtraction, TaskClassification},
		Languages: []InputLanguage{LangEnglish, LangPortuguese, LangMulti},
		Offline:   true,
	},
	Deepseek: {
		Strengths: []TaskType{TaskGeneration, TaskExtraction},
		Languages: []InputLanguage{LangEnglish, LangPortuguese},
		Offline:   true,
	},
}

// CapabilityOf returns a copy of the candidate's capability profile.
func CapabilityOf(c Candidate) Capability {
	p := capabilities[c]
	return Capability{
		Strengths: append([]TaskType(nil), p.Strengths...),
		Languages: append([]InputLanguage(nil), p.Languages...),
		Offline:   p.Offline,
	}
}

func (c Capability) hasStrength(t TaskType) bool {
	for _, s := range c.Strengths {
		if s == t {
			return true
		}
	}
	return false
}

func (c Capability) speaks(l InputLanguage) bool {
	for _, s := range c.Languages {
		if s == l {
			return true
		}
	}
	return false
}

// candidateSet is a fixed subset of candidates that a rule favors.
type candidateSet map[Candidate]bool

func setOf(cs ...Candidate) candidateSet {
	s := make(candidateSet, len(cs))
	for _, c := range cs {
		s[c] = true
	}
	return s
}

var (
	carefulReasoning = setOf(Gemini, Claude2)
	efficient        = setOf(Llama3_70B, Deepseek)
	edgeFriendly     = setOf(Deepseek)
	cpuFriendly      = setOf(Deepseek, Llama3_70B)
	lowHallucination = setOf(Gemini, Claude2)
	creativeLeaning  = setOf(GPT4o, Deepseek)
	precisionLeaning = setOf(Claude2, Gemini)
)
