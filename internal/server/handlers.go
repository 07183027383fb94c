package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/inference-sim/llm-matchmaker/match"
)

// maxBodyBytes caps a predict request body.
const maxBodyBytes = 64 << 10

type predictResponse struct {
	Prediction  match.Candidate `json:"prediction"`
	Probability *float64        `json:"probability,omitempty"`
}

type errorResponse struct {
	Error     string   `json:"error"`
	Detail    string   `json:"detail,omitempty"`
	Attribute string   `json:"attribute,omitempty"`
	Value     string   `json:"value,omitempty"`
	Allowed   []string `json:"allowed,omitempty"`
}

type attributeDomain struct {
	Name   match.Attribute `json:"name"`
	Values []string        `json:"values"`
}

type schemaResponse struct {
	Attributes     []attributeDomain `json:"attributes"`
	FeatureColumns []string          `json:"feature_columns"`
	Candidates     []match.Candidate `json:"candidates"`
}

// handlePredict answers one scenario with the matcher's best candidate.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeAPIJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Detail: "request body too large or unreadable"})
		return
	}

	scenario, err := decodePredictRequest(body)
	if err != nil {
		s.writePredictError(w, err)
		return
	}

	pred, err := s.facade.Predict(scenario)
	if err != nil {
		s.writePredictError(w, err)
		return
	}
	s.log.WithField("candidate", pred.Model).Debug("predicted")
	writeAPIJSON(w, http.StatusOK, predictResponse{Prediction: pred.Model, Probability: pred.Probability})
}

func (s *Server) writePredictError(w http.ResponseWriter, err error) {
	var attrErr *match.InvalidAttributeValueError
	switch {
	case errors.Is(err, errBadRequest):
		writeAPIJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_request", Detail: err.Error()})
	case errors.As(err, &attrErr):
		writeAPIJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:     "invalid_attribute",
			Attribute: string(attrErr.Attribute),
			Value:     attrErr.Value,
			Allowed:   attrErr.Legal,
		})
	case errors.Is(err, match.ErrInvalidAttributeValue):
		writeAPIJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid_attribute"})
	case errors.Is(err, match.ErrMatcherNotLoaded):
		writeAPIJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "model_not_loaded"})
	default:
		s.log.WithError(err).Error("predict failed")
		writeAPIJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// handleHealth reports whether the matcher is loaded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.facade.Ready() {
		writeAPIJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unloaded"})
		return
	}
	writeAPIJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleSchema lists every attribute's legal values and the feature order.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	resp := schemaResponse{
		FeatureColumns: match.FeatureColumns(),
		Candidates:     match.Candidates(),
	}
	for _, a := range match.Attributes() {
		resp.Attributes = append(resp.Attributes, attributeDomain{Name: a, Values: match.LegalValues(a)})
	}
	writeAPIJSON(w, http.StatusOK, resp)
}

func writeAPIJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
