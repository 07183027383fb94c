package match

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMatcher struct {
	label   Candidate
	err     error
	panics  bool
	columns []string
	calls   int
	mu      sync.Mutex
}

func (m *stubMatcher) Predict(row FeatureRow) (Candidate, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.panics {
		panic("index out of range")
	}
	return m.label, m.err
}

func (m *stubMatcher) Columns() []string {
	if m.columns != nil {
		return m.columns
	}
	return FeatureColumns()
}

func readyFacade(t *testing.T, m Matcher) (*Facade, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	h := NewMatcherHandle()
	require.NoError(t, h.Load(func() (Matcher, error) { return m, nil }))
	return NewFacade(h, logger), hook
}

func TestFacade_UnloadedRejects(t *testing.T) {
	f := NewFacade(NewMatcherHandle(), nil)
	assert.False(t, f.Ready())

	_, err := f.Predict(sensitiveEdgeScenario(t))
	assert.ErrorIs(t, err, ErrMatcherNotLoaded)
}

func TestFacade_PredictReturnsLabel(t *testing.T) {
	f, _ := readyFacade(t, &stubMatcher{label: Claude2})
	assert.True(t, f.Ready())

	pred, err := f.Predict(sensitiveEdgeScenario(t))
	require.NoError(t, err)
	assert.Equal(t, Claude2, pred.Model)
	assert.Nil(t, pred.Probability)
}

func TestFacade_InvalidScenarioNeverReachesMatcher(t *testing.T) {
	m := &stubMatcher{label: Gemini}
	f, _ := readyFacade(t, m)

	s := sensitiveEdgeScenario(t)
	s.Domain = "astrology"
	_, err := f.Predict(s)
	assert.ErrorIs(t, err, ErrInvalidAttributeValue)
	assert.Zero(t, m.calls)
}

func TestFacade_InternalFailureIsOpaque(t *testing.T) {
	tests := []struct {
		name string
		m    *stubMatcher
	}{
		{"matcher error", &stubMatcher{err: errors.New("tree 17 has no root")}},
		{"matcher panic", &stubMatcher{panics: true}},
		{"label outside candidate set", &stubMatcher{label: "GPT-5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, hook := readyFacade(t, tt.m)
			_, err := f.Predict(sensitiveEdgeScenario(t))
			assert.Equal(t, ErrPredictionFailed, err)
			assert.NotContains(t, err.Error(), "tree 17")
			require.NotEmpty(t, hook.AllEntries())
			assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
		})
	}
}

// flakyColumnsMatcher reports valid columns at load time and panics afterwards.
type flakyColumnsMatcher struct {
	stubMatcher
	loaded bool
}

func (m *flakyColumnsMatcher) Columns() []string {
	if m.loaded {
		panic("columns unavailable")
	}
	m.loaded = true
	return FeatureColumns()
}

func TestFacade_PanickingColumnsIsOpaque(t *testing.T) {
	// GIVEN a matcher whose Columns panics once it is serving
	m := &flakyColumnsMatcher{stubMatcher: stubMatcher{label: Gemini}}
	f, hook := readyFacade(t, m)

	// WHEN predicting
	var err error
	require.NotPanics(t, func() { _, err = f.Predict(sensitiveEdgeScenario(t)) })

	// THEN the panic becomes an opaque failure and is logged
	assert.Equal(t, ErrPredictionFailed, err)
	assert.Zero(t, m.calls)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "matcher panicked during predict", hook.LastEntry().Message)
}

func TestFacade_EncodingMismatchFromMatcher(t *testing.T) {
	f, _ := readyFacade(t, &stubMatcher{err: fmt.Errorf("transform: %w", ErrEncodingMismatch)})
	_, err := f.Predict(sensitiveEdgeScenario(t))
	assert.ErrorIs(t, err, ErrEncodingMismatch)
}

func TestMatcherHandle_LoadOnce(t *testing.T) {
	h := NewMatcherHandle()
	require.NoError(t, h.Load(func() (Matcher, error) { return &stubMatcher{label: GPT4o}, nil }))
	err := h.Load(func() (Matcher, error) { return &stubMatcher{label: Gemini}, nil })
	assert.ErrorIs(t, err, ErrAlreadyLoaded)

	pred, err := NewFacade(h, nil).Predict(sensitiveEdgeScenario(t))
	require.NoError(t, err)
	assert.Equal(t, GPT4o, pred.Model, "first load stays in place")
}

func TestMatcherHandle_FailedLoadStaysUnloaded(t *testing.T) {
	h := NewMatcherHandle()
	err := h.Load(func() (Matcher, error) { return nil, errors.New("no such file") })
	assert.Error(t, err)
	assert.False(t, h.Ready())

	err = h.Load(func() (Matcher, error) {
		return &stubMatcher{columns: []string{"task_type"}}, nil
	})
	assert.ErrorIs(t, err, ErrEncodingMismatch)
	assert.False(t, h.Ready())

	require.NoError(t, h.Load(func() (Matcher, error) { return &stubMatcher{label: Deepseek}, nil }))
	assert.True(t, h.Ready())
}

func TestFacade_ConcurrentPredictIsStable(t *testing.T) {
	f, _ := readyFacade(t, &stubMatcher{label: Llama3_70B})
	s := sensitiveEdgeScenario(t)

	var wg sync.WaitGroup
	results := make([]Candidate, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := f.Predict(s)
			if err == nil {
				results[i] = p.Model
			}
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, Llama3_70B, r)
	}
}
