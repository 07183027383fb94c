package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/inference-sim/llm-matchmaker/match"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubMatcher struct {
	label match.Candidate
	err   error
}

func (s stubMatcher) Predict(match.FeatureRow) (match.Candidate, error) { return s.label, s.err }
func (s stubMatcher) Columns() []string                                   { return match.FeatureColumns() }

func newTestServer(t *testing.T, m match.Matcher, cfg Config) (*Server, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	handle := match.NewMatcherHandle()
	if m != nil {
		require.NoError(t, handle.Load(func() (match.Matcher, error) { return m, nil }))
	}
	return New(cfg, match.NewFacade(handle, logger), logger), hook
}

const validBody = `{
	"task_type": "extraction",
	"domain": "legal",
	"input_language": "pt",
	"privacy_requirement": "local",
	"hardware_available": "cpu",
	"hallucination_tolerance": "low",
	"determinism_needed": 1,
	"temperature_pref": "low",
	"output_style": "formal"
}`

func do(t *testing.T, s *Server, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestPredict_ReturnsMatcherLabel(t *testing.T) {
	// GIVEN a ready server
	srv, _ := newTestServer(t, stubMatcher{label: match.Llama3_70B}, Config{})

	// WHEN posting a valid scenario
	rec := do(t, srv, http.MethodPost, "/predict-match", validBody, nil)

	// THEN the prediction is returned without a probability
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]any{"prediction": "Llama-3-70B"}, decode(t, rec))
}

func TestPredict_AcceptedSpellings(t *testing.T) {
	srv, _ := newTestServer(t, stubMatcher{label: match.Gemini}, Config{})
	tests := []struct {
		name    string
		replace [2]string
	}{
		{"boolean determinism", [2]string{`"determinism_needed": 1`, `"determinism_needed": true`}},
		{"string determinism", [2]string{`"determinism_needed": 1`, `"determinism_needed": "0"`}},
		{"bridge determinism", [2]string{`"determinism_needed": 1`, `"determinism_needed": "high"`}},
		{"temperature alias", [2]string{`"temperature_pref"`, `"temperature_preference"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Replace(validBody, tt.replace[0], tt.replace[1], 1)
			rec := do(t, srv, http.MethodPost, "/predict-match", body, nil)
			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		})
	}
}

func TestPredict_BadShapeIs400(t *testing.T) {
	srv, _ := newTestServer(t, stubMatcher{label: match.Gemini}, Config{})
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"task_type":`},
		{"array", `[]`},
		{"missing field", strings.Replace(validBody, `"domain": "legal",`, "", 1)},
		{"missing temperature", strings.Replace(validBody, `"temperature_pref": "low",`, "", 1)},
		{"number for string", strings.Replace(validBody, `"task_type": "extraction"`, `"task_type": 3`, 1)},
		{"float determinism", strings.Replace(validBody, `"determinism_needed": 1`, `"determinism_needed": 0.5`, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/predict-match", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid_request", decode(t, rec)["error"])
		})
	}
}

func TestPredict_OutOfDomainValueIs422(t *testing.T) {
	// GIVEN a well-shaped body with an unknown domain
	srv, _ := newTestServer(t, stubMatcher{label: match.Gemini}, Config{})
	body := strings.Replace(validBody, `"domain": "legal"`, `"domain": "astrology"`, 1)

	// WHEN posting it
	rec := do(t, srv, http.MethodPost, "/predict-match", body, nil)

	// THEN the attribute and its legal values are named
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	got := decode(t, rec)
	assert.Equal(t, "invalid_attribute", got["error"])
	assert.Equal(t, "domain", got["attribute"])
	assert.Equal(t, "astrology", got["value"])
	assert.Len(t, got["allowed"], len(match.AllDomains()))

	body = strings.Replace(validBody, `"determinism_needed": 1`, `"determinism_needed": 2`, 1)
	rec = do(t, srv, http.MethodPost, "/predict-match", body, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "determinism_needed", decode(t, rec)["attribute"])
}

func TestPredict_UnloadedIs503(t *testing.T) {
	srv, _ := newTestServer(t, nil, Config{})
	rec := do(t, srv, http.MethodPost, "/predict-match", validBody, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "model_not_loaded", decode(t, rec)["error"])
}

func TestPredict_InternalFailureHidesDetail(t *testing.T) {
	// GIVEN a matcher that fails with a sensitive message
	srv, hook := newTestServer(t, stubMatcher{err: errors.New("disk at /secret exploded")}, Config{})

	// WHEN predicting
	rec := do(t, srv, http.MethodPost, "/predict-match", validBody, nil)

	// THEN the client sees only a generic 500 and the detail is logged
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"error": "internal server error"}, decode(t, rec))
	assert.NotContains(t, rec.Body.String(), "secret")
	found := false
	for _, e := range hook.AllEntries() {
		if err, ok := e.Data["error"].(error); ok && strings.Contains(err.Error(), "secret") {
			found = true
		}
	}
	assert.True(t, found, "matcher failure should be logged")
}

func TestHealthz(t *testing.T) {
	unloaded, _ := newTestServer(t, nil, Config{})
	rec := do(t, unloaded, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unloaded", decode(t, rec)["status"])

	ready, _ := newTestServer(t, stubMatcher{label: match.Gemini}, Config{})
	rec = do(t, ready, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["status"])
}

func TestSchema_ListsDomainsAndContract(t *testing.T) {
	srv, _ := newTestServer(t, nil, Config{})
	rec := do(t, srv, http.MethodGet, "/schema", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got schemaResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Attributes, 9)
	assert.Equal(t, match.AttrTaskType, got.Attributes[0].Name)
	assert.Equal(t, match.FeatureColumns(), got.FeatureColumns)
	assert.Equal(t, match.Candidates(), got.Candidates)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, nil, Config{})
	rec := do(t, srv, http.MethodGet, "/predict-match", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORS(t *testing.T) {
	open, _ := newTestServer(t, nil, Config{})
	rec := do(t, open, http.MethodGet, "/healthz", "", map[string]string{"Origin": "http://a.example"})
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, open, http.MethodOptions, "/predict-match", "", map[string]string{"Origin": "http://a.example"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	restricted, _ := newTestServer(t, nil, Config{AllowedOrigins: []string{"http://a.example"}})
	rec = do(t, restricted, http.MethodGet, "/healthz", "", map[string]string{"Origin": "http://a.example"})
	assert.Equal(t, "http://a.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, restricted, http.MethodOptions, "/predict-match", "", map[string]string{"Origin": "http://b.example"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStartAndShutdown(t *testing.T) {
	// GIVEN a server started on an ephemeral port
	srv, _ := newTestServer(t, stubMatcher{label: match.Deepseek}, Config{Addr: "127.0.0.1:0"})
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(context.Background()) }()
	require.Eventually(t, func() bool { return srv.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	// WHEN a real client calls it
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 2 * time.Second}
	resp, err := client.Post("http://"+srv.Addr()+"/predict-match", "application/json", strings.NewReader(validBody))
	require.NoError(t, err)
	var got predictResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, match.Deepseek, got.Prediction)

	// THEN shutdown stops Start cleanly
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}
