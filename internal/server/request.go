package server

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/inference-sim/llm-matchmaker/match"
)

//go:embed predict_request.schema.json
var predictRequestSchemaJSON string

// predictRequestSchema is the compiled shape check for POST /predict-match.
var predictRequestSchema = mustCompileSchema(predictRequestSchemaJSON, "predict_request.schema.json")

// temperatureAlias is the bridge's spelling of temperature_pref.
const temperatureAlias = "temperature_preference"

// schemaPrinter formats schema validation messages.
var schemaPrinter = message.NewPrinter(language.English)

// errBadRequest marks a body that is not JSON or fails the shape check.
var errBadRequest = errors.New("invalid request")

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// schemaErrors flattens a validation error into "/location: message" lines.
func schemaErrors(err error) []string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	var out []string
	var walk func(*jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			out = append(out, fmt.Sprintf("/%s: %s", strings.Join(v.InstanceLocation, "/"), v.ErrorKind.LocalizedString(schemaPrinter)))
			return
		}
		for _, c := range v.Causes {
			walk(c)
		}
	}
	walk(ve)
	return out
}

// decodePredictRequest turns a request body into a validated scenario.
// Shape failures wrap errBadRequest; bad values are *match.InvalidAttributeValueError.
func decodePredictRequest(body []byte) (match.Scenario, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return match.Scenario{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := predictRequestSchema.Validate(inst); err != nil {
		return match.Scenario{}, fmt.Errorf("%w: %s", errBadRequest, strings.Join(schemaErrors(err), "; "))
	}

	obj := inst.(map[string]any)
	raw := make(map[string]string, len(match.Attributes()))
	for _, attr := range match.Attributes() {
		v, ok := obj[string(attr)]
		if !ok && attr == match.AttrTemperaturePref {
			v = obj[temperatureAlias]
		}
		raw[string(attr)] = token(v)
	}
	return match.ParseScenario(raw)
}

// token renders a shape-checked JSON value as an attribute token.
func token(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return match.FormatDeterminism(t)
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
