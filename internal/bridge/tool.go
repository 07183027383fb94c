package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/llm-matchmaker/match"
)

// ToolName is the registered MCP tool.
const ToolName = "get_best_llm"

// FailureMessage is the tool text returned when no prediction is available.
const FailureMessage = "Failed to determine the best LLM model. Please try again later."

// GetBestLLMParams are the tool arguments.
type GetBestLLMParams struct {
	TaskType               string `json:"task_type" jsonschema:"generation, extraction, reasoning, classification or summarization"`
	Domain                 string `json:"domain" jsonschema:"general, legal, technical, finance, medical or ecommerce"`
	InputLanguage          string `json:"input_language" jsonschema:"en, pt or multi"`
	PrivacyRequirement     string `json:"privacy_requirement" jsonschema:"cloud, local or hybrid"`
	HardwareAvailable      string `json:"hardware_available" jsonschema:"consumer_gpu, cpu, pro_gpu or edge"`
	HallucinationTolerance string `json:"hallucination_tolerance" jsonschema:"high, medium or low"`
	DeterminismNeeded      string `json:"determinism_needed" jsonschema:"high or low"`
	TemperaturePreference  string `json:"temperature_preference" jsonschema:"low, medium or high"`
	OutputStyle            string `json:"output_style" jsonschema:"formal, creative, factual or precise"`
}

// MatchResult is the tool's structured answer.
type MatchResult struct {
	Model       match.Candidate `json:"model"`
	Probability *float64        `json:"probability,omitempty"`
}

// ArgumentError names the tool argument that failed validation.
type ArgumentError struct {
	Field string
	Err   error
}

func (e *ArgumentError) Error() string { return fmt.Sprintf("invalid %s: %v", e.Field, e.Err) }
func (e *ArgumentError) Unwrap() error { return e.Err }

// Scenario validates the arguments. Determinism is spelled high/low here.
func (p GetBestLLMParams) Scenario() (match.Scenario, error) {
	var det bool
	switch p.DeterminismNeeded {
	case "high":
		det = true
	case "low":
	default:
		return match.Scenario{}, &ArgumentError{
			Field: string(match.AttrDeterminismNeeded),
			Err:   fmt.Errorf("%q is not one of [high, low]: %w", p.DeterminismNeeded, match.ErrInvalidAttributeValue),
		}
	}
	raw := map[string]string{
		string(match.AttrTaskType):               p.TaskType,
		string(match.AttrDomain):                 p.Domain,
		string(match.AttrInputLanguage):          p.InputLanguage,
		string(match.AttrPrivacyRequirement):     p.PrivacyRequirement,
		string(match.AttrHardwareAvailable):      p.HardwareAvailable,
		string(match.AttrHallucinationTolerance): p.HallucinationTolerance,
		string(match.AttrDeterminismNeeded):      match.FormatDeterminism(det),
		string(match.AttrTemperaturePref):        p.TemperaturePreference,
		string(match.AttrOutputStyle):            p.OutputStyle,
	}
	s, err := match.ParseScenario(raw)
	if err != nil {
		field := "arguments"
		var ie *match.InvalidAttributeValueError
		if errors.As(err, &ie) {
			field = string(ie.Attribute)
			if ie.Attribute == match.AttrTemperaturePref {
				field = "temperature_preference"
			}
		}
		return match.Scenario{}, &ArgumentError{Field: field, Err: err}
	}
	return s, nil
}

func textResult(text string) *mcp.CallToolResultFor[MatchResult] {
	return &mcp.CallToolResultFor[MatchResult]{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// NewHandler returns the get_best_llm handler backed by p.
func NewHandler(p Predictor, log logrus.FieldLogger) mcp.ToolHandlerFor[GetBestLLMParams, MatchResult] {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[GetBestLLMParams]) (*mcp.CallToolResultFor[MatchResult], error) {
		log.Info("Received request for best LLM match")
		args := params.Arguments
		log.WithField("arguments", args).Debug("request parameters")

		s, err := args.Scenario()
		if err != nil {
			log.WithError(err).Warn("rejected tool arguments")
			return textResult(err.Error()), nil
		}

		pred, err := p.Predict(ctx, s)
		if err != nil {
			log.WithError(err).Error("Failed to retrieve best model")
			return textResult(FailureMessage), nil
		}
		log.WithField("candidate", pred.Model).Info("Best model determined")

		result := MatchResult{Model: pred.Model, Probability: pred.Probability}
		return &mcp.CallToolResultFor[MatchResult]{
			Content:           []mcp.Content{&mcp.TextContent{Text: string(pred.Model)}},
			StructuredContent: result,
		}, nil
	}
}

// NewServer builds an MCP server with the get_best_llm tool registered.
func NewServer(p Predictor, version string, log logrus.FieldLogger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "matchmaker-mcp",
		Version: version,
	}, &mcp.ServerOptions{})

	tool := &mcp.Tool{
		Name:        ToolName,
		Description: "Recommend the best LLM (GPT-4o, Gemini, Claude-2, Llama-3-70B or Deepseek) for a task described by nine categorical requirements.",
	}
	mcp.AddTool(server, tool, NewHandler(p, log))
	return server
}

// Serve runs server over stdio until the client disconnects or ctx ends.
func Serve(ctx context.Context, server *mcp.Server) error {
	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
