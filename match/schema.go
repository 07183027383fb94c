package match

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Attribute names one of the nine scenario columns. The string value is the
// column header used in the dataset file and the JSON request body.
type Attribute string

const (
	AttrTaskType               Attribute = "task_type"
	AttrDomain                 Attribute = "domain"
	AttrInputLanguage          Attribute = "input_language"
	AttrPrivacyRequirement     Attribute = "privacy_requirement"
	AttrHardwareAvailable      Attribute = "hardware_available"
	AttrHallucinationTolerance Attribute = "hallucination_tolerance"
	AttrDeterminismNeeded      Attribute = "determinism_needed"
	AttrTemperaturePref        Attribute = "temperature_pref"
	AttrOutputStyle            Attribute = "output_style"
)

// Attributes returns the nine scenario attributes in dataset column order.
func Attributes() []Attribute {
	return []Attribute{
		AttrTaskType,
		AttrDomain,
		AttrInputLanguage,
		AttrPrivacyRequirement,
		AttrHardwareAvailable,
		AttrHallucinationTolerance,
		AttrDeterminismNeeded,
		AttrTemperaturePref,
		AttrOutputStyle,
	}
}

// TaskType is the kind of work the model is asked to do.
type TaskType string

const (
	TaskGeneration     TaskType = "generation"
	TaskExtraction     TaskType = "extraction"
	TaskReasoning      TaskType = "reasoning"
	TaskClassification TaskType = "classification"
	TaskSummarization  TaskType = "summarization"
)

// AllTaskTypes returns the legal task types in canonical order.
func AllTaskTypes() []TaskType {
	return []TaskType{TaskGeneration, TaskExtraction, TaskReasoning, TaskClassification, TaskSummarization}
}

// IsValid reports whether t is a declared task type.
func (t TaskType) IsValid() bool {
	switch t {
	case TaskGeneration, TaskExtraction, TaskReasoning, TaskClassification, TaskSummarization:
		return true
	}
	return false
}

// Domain is the subject area of the task.
type Domain string

const (
	DomainGeneral   Domain = "general"
	DomainLegal     Domain = "legal"
	DomainTechnical Domain = "technical"
	DomainFinance   Domain = "finance"
	DomainMedical   Domain = "medical"
	DomainEcommerce Domain = "ecommerce"
)

// AllDomains returns the legal domains in canonical order.
func AllDomains() []Domain {
	return []Domain{DomainGeneral, DomainLegal, DomainTechnical, DomainFinance, DomainMedical, DomainEcommerce}
}

// IsValid reports whether d is a declared domain.
func (d Domain) IsValid() bool {
	switch d {
	case DomainGeneral, DomainLegal, DomainTechnical, DomainFinance, DomainMedical, DomainEcommerce:
		return true
	}
	return false
}

// IsSensitive reports whether the domain calls for careful reasoning.
func (d Domain) IsSensitive() bool {
	switch d {
	case DomainLegal, DomainMedical, DomainFinance:
		return true
	}
	return false
}

// InputLanguage is the language of the task input.
type InputLanguage string

const (
	LangEnglish    InputLanguage = "en"
	LangPortuguese InputLanguage = "pt"
	LangMulti      InputLanguage = "multi"
)

// AllInputLanguages returns the legal input languages in canonical order.
func AllInputLanguages() []InputLanguage {
	return []InputLanguage{LangEnglish, LangPortuguese, LangMulti}
}

// IsValid reports whether l is a declared input language.
func (l InputLanguage) IsValid() bool {
	switch l {
	case LangEnglish, LangPortuguese, LangMulti:
		return true
	}
	return false
}

// PrivacyRequirement is where the model is allowed to run.
type PrivacyRequirement string

const (
	PrivacyCloud  PrivacyRequirement = "cloud"
	PrivacyLocal  PrivacyRequirement = "local"
	PrivacyHybrid PrivacyRequirement = "hybrid"
)

// AllPrivacyRequirements returns the legal privacy requirements in canonical order.
func AllPrivacyRequirements() []PrivacyRequirement {
	return []PrivacyRequirement{PrivacyCloud, PrivacyLocal, PrivacyHybrid}
}

// IsValid reports whether p is a declared privacy requirement.
func (p PrivacyRequirement) IsValid() bool {
	switch p {
	case PrivacyCloud, PrivacyLocal, PrivacyHybrid:
		return true
	}
	return false
}

// HardwareAvailable is the hardware the caller can run the model on.
type HardwareAvailable string

const (
	HardwareConsumerGPU HardwareAvailable = "consumer_gpu"
	HardwareCPU         HardwareAvailable = "cpu"
	HardwareProGPU      HardwareAvailable = "pro_gpu"
	HardwareEdge        HardwareAvailable = "edge"
)

// AllHardware returns the legal hardware values in canonical order.
func AllHardware() []HardwareAvailable {
	return []HardwareAvailable{HardwareConsumerGPU, HardwareCPU, HardwareProGPU, HardwareEdge}
}

// IsValid reports whether h is a declared hardware value.
func (h HardwareAvailable) IsValid() bool {
	switch h {
	case HardwareConsumerGPU, HardwareCPU, HardwareProGPU, HardwareEdge:
		return true
	}
	return false
}

// HallucinationTolerance is how much fabricated output the caller accepts.
type HallucinationTolerance string

const (
	HallucinationHigh   HallucinationTolerance = "high"
	HallucinationMedium HallucinationTolerance = "medium"
	HallucinationLow    HallucinationTolerance = "low"
)

// AllHallucinationTolerances returns the legal tolerances in canonical order.
func AllHallucinationTolerances() []HallucinationTolerance {
	return []HallucinationTolerance{HallucinationHigh, HallucinationMedium, HallucinationLow}
}

// IsValid reports whether h is a declared tolerance.
func (h HallucinationTolerance) IsValid() bool {
	switch h {
	case HallucinationHigh, HallucinationMedium, HallucinationLow:
		return true
	}
	return false
}

// TemperaturePreference is the preferred sampling temperature band.
type TemperaturePreference string

const (
	TemperatureLow    TemperaturePreference = "low"
	TemperatureMedium TemperaturePreference = "medium"
	TemperatureHigh   TemperaturePreference = "high"
)

// AllTemperaturePreferences returns the legal temperature preferences in canonical order.
func AllTemperaturePreferences() []TemperaturePreference {
	return []TemperaturePreference{TemperatureLow, TemperatureMedium, TemperatureHigh}
}

// IsValid reports whether t is a declared temperature preference.
func (t TemperaturePreference) IsValid() bool {
	switch t {
	case TemperatureLow, TemperatureMedium, TemperatureHigh:
		return true
	}
	return false
}

// OutputStyle is the desired register of the model output.
type OutputStyle string

const (
	StyleFormal   OutputStyle = "formal"
	StyleCreative OutputStyle = "creative"
	StyleFactual  OutputStyle = "factual"
	StylePrecise  OutputStyle = "precise"
)

// AllOutputStyles returns the legal output styles in canonical order.
func AllOutputStyles() []OutputStyle {
	return []OutputStyle{StyleFormal, StyleCreative, StyleFactual, StylePrecise}
}

// IsValid reports whether o is a declared output style.
func (o OutputStyle) IsValid() bool {
	switch o {
	case StyleFormal, StyleCreative, StyleFactual, StylePrecise:
		return true
	}
	return false
}

// Scenario is one request or sample: nine categorical attributes.
// Construct it with ParseScenario or validate it with Validate before use.
type Scenario struct {
	TaskType               TaskType
	Domain                 Domain
	InputLanguage          InputLanguage
	PrivacyRequirement     PrivacyRequirement
	HardwareAvailable      HardwareAvailable
	HallucinationTolerance HallucinationTolerance
	DeterminismNeeded      bool
	TemperaturePref        TemperaturePreference
	OutputStyle            OutputStyle
}

// Validate checks every attribute against its declared domain.
// Returns the first *InvalidAttributeValueError found, in column order.
func (s Scenario) Validate() error {
	for i, attr := range Attributes() {
		if err := ValidateValue(attr, s.Values()[i]); err != nil {
			return err
		}
	}
	return nil
}

// Values returns the nine attribute tokens in dataset column order.
// Determinism is rendered as "0" or "1".
func (s Scenario) Values() []string {
	return []string{
		string(s.TaskType),
		string(s.Domain),
		string(s.InputLanguage),
		string(s.PrivacyRequirement),
		string(s.HardwareAvailable),
		string(s.HallucinationTolerance),
		FormatDeterminism(s.DeterminismNeeded),
		string(s.TemperaturePref),
		string(s.OutputStyle),
	}
}

// Value returns the token of a single attribute.
func (s Scenario) Value(attr Attribute) string {
	for i, a := range Attributes() {
		if a == attr {
			return s.Values()[i]
		}
	}
	return ""
}

// FormatDeterminism renders the determinism flag as its dataset token.
func FormatDeterminism(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// ParseDeterminism accepts 0/1, true/false and the bridge's low/high spelling.
func ParseDeterminism(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "high":
		return true, nil
	case "0", "false", "low":
		return false, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && (f == 0 || f == 1) {
		return f == 1, nil
	}
	return false, &InvalidAttributeValueError{Attribute: AttrDeterminismNeeded, Value: raw, Legal: LegalValues(AttrDeterminismNeeded)}
}

// LegalValues returns the closed set of tokens for an attribute, in canonical order.
// Returns nil for an unknown attribute.
func LegalValues(attr Attribute) []string {
	switch attr {
	case AttrTaskType:
		return toStrings(AllTaskTypes())
	case AttrDomain:
		return toStrings(AllDomains())
	case AttrInputLanguage:
		return toStrings(AllInputLanguages())
	case AttrPrivacyRequirement:
		return toStrings(AllPrivacyRequirements())
	case AttrHardwareAvailable:
		return toStrings(AllHardware())
	case AttrHallucinationTolerance:
		return toStrings(AllHallucinationTolerances())
	case AttrDeterminismNeeded:
		return []string{"0", "1"}
	case AttrTemperaturePref:
		return toStrings(AllTemperaturePreferences())
	case AttrOutputStyle:
		return toStrings(AllOutputStyles())
	}
	return nil
}

// ValidateValue is the single gate for raw categorical input. Both the dataset
// synthesizer and the serving boundary call it before scoring or encoding.
func ValidateValue(attr Attribute, raw string) error {
	var ok bool
	switch attr {
	case AttrTaskType:
		ok = TaskType(raw).IsValid()
	case AttrDomain:
		ok = Domain(raw).IsValid()
	case AttrInputLanguage:
		ok = InputLanguage(raw).IsValid()
	case AttrPrivacyRequirement:
		ok = PrivacyRequirement(raw).IsValid()
	case AttrHardwareAvailable:
		ok = HardwareAvailable(raw).IsValid()
	case AttrHallucinationTolerance:
		ok = HallucinationTolerance(raw).IsValid()
	case AttrDeterminismNeeded:
		ok = raw == "0" || raw == "1"
	case AttrTemperaturePref:
		ok = TemperaturePreference(raw).IsValid()
	case AttrOutputStyle:
		ok = OutputStyle(raw).IsValid()
	default:
		return fmt.Errorf("unknown attribute %q: %w", attr, ErrInvalidAttributeValue)
	}
	if !ok {
		return &InvalidAttributeValueError{Attribute: attr, Value: raw, Legal: LegalValues(attr)}
	}
	return nil
}

// ParseScenario builds a Scenario from raw tokens keyed by attribute name.
// Keys outside the nine attributes are ignored. A missing attribute is
// reported as an invalid empty value.
func ParseScenario(raw map[string]string) (Scenario, error) {
	det, err := ParseDeterminism(raw[string(AttrDeterminismNeeded)])
	if err != nil {
		return Scenario{}, err
	}
	s := Scenario{
		TaskType:               TaskType(raw[string(AttrTaskType)]),
		Domain:                 Domain(raw[string(AttrDomain)]),
		InputLanguage:          InputLanguage(raw[string(AttrInputLanguage)]),
		PrivacyRequirement:     PrivacyRequirement(raw[string(AttrPrivacyRequirement)]),
		HardwareAvailable:      HardwareAvailable(raw[string(AttrHardwareAvailable)]),
		HallucinationTolerance: HallucinationTolerance(raw[string(AttrHallucinationTolerance)]),
		DeterminismNeeded:      det,
		TemperaturePref:        TemperaturePreference(raw[string(AttrTemperaturePref)]),
		OutputStyle:            OutputStyle(raw[string(AttrOutputStyle)]),
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// ScenarioFromValues builds a Scenario from nine tokens in dataset column order.
func ScenarioFromValues(values []string) (Scenario, error) {
	attrs := Attributes()
	if len(values) != len(attrs) {
		return Scenario{}, fmt.Errorf("expected %d attribute values, got %d: %w", len(attrs), len(values), ErrInvalidAttributeValue)
	}
	raw := make(map[string]string, len(attrs))
	for i, a := range attrs {
		raw[string(a)] = values[i]
	}
	// Dataset tokens for determinism are strictly 0/1.
	if err := ValidateValue(AttrDeterminismNeeded, values[6]); err != nil {
		return Scenario{}, err
	}
	return ParseScenario(raw)
}

// Domains returns every attribute's legal values keyed by attribute name.
func Domains() map[Attribute][]string {
	out := make(map[Attribute][]string, len(Attributes()))
	for _, a := range Attributes() {
		out[a] = LegalValues(a)
	}
	return out
}

func toStrings[T ~string](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

// validNamesList returns the sorted keys of a name registry.
func validNamesList(m map[string]bool) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
