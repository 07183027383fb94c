package match

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidAttributeValue marks input outside a declared categorical domain.
	ErrInvalidAttributeValue = errors.New("invalid attribute value")

	// ErrMatcherNotLoaded is returned by the façade before the artifact is loaded.
	ErrMatcherNotLoaded = errors.New("matcher not loaded")

	// ErrEncodingMismatch marks feature columns that disagree with the contract.
	ErrEncodingMismatch = errors.New("encoding mismatch")

	// ErrPredictionFailed is the opaque error surfaced for unexpected internal failures.
	ErrPredictionFailed = errors.New("prediction failed")

	// ErrAlreadyLoaded is returned when a MatcherHandle is loaded twice.
	ErrAlreadyLoaded = errors.New("matcher already loaded")
)

// InvalidAttributeValueError names the offending attribute and value.
// It matches ErrInvalidAttributeValue under errors.Is.
type InvalidAttributeValueError struct {
	Attribute Attribute
	Value     string
	Legal     []string
}

func (e *InvalidAttributeValueError) Error() string {
	return fmt.Sprintf("%s: %q is not one of [%s]", e.Attribute, e.Value, strings.Join(e.Legal, ", "))
}

// Is reports ErrInvalidAttributeValue as the sentinel for this error.
func (e *InvalidAttributeValueError) Is(target error) bool {
	return target == ErrInvalidAttributeValue
}
