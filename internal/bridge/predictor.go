//go:generate go tool mockgen -source=predictor.go -destination=mock_predictor_test.go -package=bridge

// Package bridge exposes the matcher as an MCP tool for AI agents.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/inference-sim/llm-matchmaker/match"
)

// Predictor answers a scenario with the best candidate.
type Predictor interface {
	Predict(ctx context.Context, s match.Scenario) (match.Prediction, error)
}

// DefaultUserAgent identifies the bridge to the HTTP service.
const DefaultUserAgent = "llm-matchmaker-bridge/1.0"

// HTTPPredictor calls a running matchmaker HTTP service.
type HTTPPredictor struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// NewHTTPPredictor returns a predictor for the service at baseURL.
func NewHTTPPredictor(baseURL string, timeout time.Duration) *HTTPPredictor {
	return &HTTPPredictor{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: DefaultUserAgent,
		Client:    &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	TaskType               match.TaskType               `json:"task_type"`
	Domain                 match.Domain                 `json:"domain"`
	InputLanguage          match.InputLanguage          `json:"input_language"`
	PrivacyRequirement     match.PrivacyRequirement     `json:"privacy_requirement"`
	HardwareAvailable      match.HardwareAvailable      `json:"hardware_available"`
	HallucinationTolerance match.HallucinationTolerance `json:"hallucination_tolerance"`
	DeterminismNeeded      bool                         `json:"determinism_needed"`
	TemperaturePref        match.TemperaturePreference  `json:"temperature_pref"`
	OutputStyle            match.OutputStyle            `json:"output_style"`
}

type predictResponse struct {
	Prediction  match.Candidate `json:"prediction"`
	Probability *float64        `json:"probability,omitempty"`
}

// Predict POSTs s to <BaseURL>/predict-match.
func (p *HTTPPredictor) Predict(ctx context.Context, s match.Scenario) (match.Prediction, error) {
	body, err := json.Marshal(predictRequest{
		TaskType:               s.TaskType,
		Domain:                 s.Domain,
		InputLanguage:          s.InputLanguage,
		PrivacyRequirement:     s.PrivacyRequirement,
		HardwareAvailable:      s.HardwareAvailable,
		HallucinationTolerance: s.HallucinationTolerance,
		DeterminismNeeded:      s.DeterminismNeeded,
		TemperaturePref:        s.TemperaturePref,
		OutputStyle:            s.OutputStyle,
	})
	if err != nil {
		return match.Prediction{}, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/predict-match", bytes.NewReader(body))
	if err != nil {
		return match.Prediction{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", p.UserAgent)

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return match.Prediction{}, fmt.Errorf("calling matchmaker API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return match.Prediction{}, fmt.Errorf("matchmaker API returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}
	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return match.Prediction{}, fmt.Errorf("decoding response: %w", err)
	}
	if !out.Prediction.IsValid() {
		return match.Prediction{}, fmt.Errorf("matchmaker API returned unknown model %q", out.Prediction)
	}
	return match.Prediction{Model: out.Prediction, Probability: out.Probability}, nil
}

// LocalPredictor answers from an in-process façade.
type LocalPredictor struct {
	Facade *match.Facade
}

func (p LocalPredictor) Predict(ctx context.Context, s match.Scenario) (match.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return match.Prediction{}, err
	}
	return p.Facade.Predict(s)
}
