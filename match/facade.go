package match

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Matcher is a fitted, immutable classifier over contract feature rows.
// Implementations must be safe for concurrent Predict calls.
type Matcher interface {
	Predict(row FeatureRow) (Candidate, error)
	// Columns returns the feature columns the matcher was trained on.
	Columns() []string
}

type loadedMatcher struct {
	m Matcher
}

// MatcherHandle owns the process's matcher. It starts Unloaded and moves to
// Ready exactly once; there is no transition back.
type MatcherHandle struct {
	mu      sync.Mutex
	current atomic.Pointer[loadedMatcher]
}

// NewMatcherHandle returns an Unloaded handle.
func NewMatcherHandle() *MatcherHandle {
	return &MatcherHandle{}
}

// Load runs loader and publishes its matcher. The matcher's columns are
// checked against the contract before it becomes visible. A second
// successful Load is rejected with ErrAlreadyLoaded; a failed Load leaves the
// handle Unloaded.
func (h *MatcherHandle) Load(loader func() (Matcher, error)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current.Load() != nil {
		return ErrAlreadyLoaded
	}
	m, err := loader()
	if err != nil {
		return fmt.Errorf("load matcher: %w", err)
	}
	if m == nil {
		return fmt.Errorf("load matcher: loader returned no matcher")
	}
	if err := CheckColumns(m.Columns()); err != nil {
		return fmt.Errorf("load matcher: %w", err)
	}
	h.current.Store(&loadedMatcher{m: m})
	return nil
}

// Ready reports whether a matcher has been loaded.
func (h *MatcherHandle) Ready() bool {
	return h.current.Load() != nil
}

func (h *MatcherHandle) matcher() (Matcher, bool) {
	lm := h.current.Load()
	if lm == nil {
		return nil, false
	}
	return lm.m, true
}

// Prediction is the façade's answer for one scenario.
// Probability is not calibrated and stays nil.
type Prediction struct {
	Model       Candidate `json:"model"`
	Probability *float64  `json:"probability,omitempty"`
}

// Facade validates a scenario, applies the contract and asks the loaded
// matcher for a single label.
type Facade struct {
	handle *MatcherHandle
	log    logrus.FieldLogger
}

// NewFacade binds a façade to a handle. A nil logger uses the standard logrus logger.
func NewFacade(handle *MatcherHandle, log logrus.FieldLogger) *Facade {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Facade{handle: handle, log: log}
}

// Ready reports whether the underlying handle is loaded.
func (f *Facade) Ready() bool { return f.handle.Ready() }

// Predict returns the matcher's label for s. Errors are one of
// ErrMatcherNotLoaded, ErrInvalidAttributeValue, ErrEncodingMismatch or
// ErrPredictionFailed; internal failure detail is logged, never returned.
func (f *Facade) Predict(s Scenario) (pred Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			f.log.WithField("panic", r).Error("matcher panicked during predict")
			pred, err = Prediction{}, ErrPredictionFailed
		}
	}()

	m, ok := f.handle.matcher()
	if !ok {
		return Prediction{}, ErrMatcherNotLoaded
	}
	if err := s.Validate(); err != nil {
		return Prediction{}, err
	}
	if err := CheckColumns(m.Columns()); err != nil {
		return Prediction{}, err
	}

	label, err := m.Predict(ContractRow(s))
	if err != nil {
		if errors.Is(err, ErrEncodingMismatch) {
			return Prediction{}, ErrEncodingMismatch
		}
		f.log.WithError(err).Error("matcher predict failed")
		return Prediction{}, ErrPredictionFailed
	}
	if !label.IsValid() {
		f.log.WithField("candidate", string(label)).Error("matcher returned a label outside the candidate set")
		return Prediction{}, ErrPredictionFailed
	}
	return Prediction{Model: label}, nil
}
