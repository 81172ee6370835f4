// Package schema derives a JSON Schema for mission documents from the Go
// types and checks YAML or JSON mission files against it.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/orviagent/orvi/pkg/types"
)

const missionSchemaID = "https://github.com/orviagent/orvi/schemas/mission.json"

// Violation is one schema error located in the document.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

var durationType = reflect.TypeOf(types.Duration(0))

// mapper covers the types whose document form differs from their Go kind.
func mapper(t reflect.Type) *jsonschema.Schema {
	if t == durationType {
		return &jsonschema.Schema{
			Description: "seconds as a number, or a duration string such as 1500ms",
			OneOf: []*jsonschema.Schema{
				{Type: "number", Minimum: json.Number("0")},
				{Type: "string"},
			},
		}
	}
	return nil
}

// GenerateMissionSchema produces a Draft 2020-12 schema for mission documents.
// Unknown fields are rejected; unknown step kinds are not, since the engine
// skips them.
func GenerateMissionSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		Mapper:                     mapper,
	}

	s := r.Reflect(&types.Mission{})
	s.ID = missionSchemaID
	s.Title = "orvi mission"
	s.Description = "Ordered browser sequences with their retry and validation rules"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal mission schema: %w", err)
	}
	return data, nil
}

func compile() (*sjsonschema.Schema, error) {
	schemaJSON, err := GenerateMissionSchema()
	if err != nil {
		return nil, err
	}
	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return nil, fmt.Errorf("unmarshal mission schema: %w", err)
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("mission.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("add mission schema resource: %w", err)
	}
	sch, err := c.Compile("mission.json")
	if err != nil {
		return nil, fmt.Errorf("compile mission schema: %w", err)
	}
	return sch, nil
}

// ValidateDocument checks a YAML or JSON mission document. A bare list is read
// as the mission's sequences, as the parser does. The error is reserved for
// documents that cannot be read at all.
func ValidateDocument(data []byte) ([]Violation, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing mission: %w", err)
	}
	raw = normalize(raw)
	if list, ok := raw.([]any); ok {
		raw = map[string]any{"sequences": list}
	}

	// Round-trip through encoding/json so numbers reach the validator in the
	// form it expects.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encoding mission for validation: %w", err)
	}
	var doc any
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return nil, fmt.Errorf("decoding mission for validation: %w", err)
	}

	sch, err := compile()
	if err != nil {
		return nil, err
	}

	err = sch.Validate(doc)
	if err == nil {
		return nil, nil
	}
	ve, ok := err.(*sjsonschema.ValidationError)
	if !ok {
		return []Violation{{Message: err.Error()}}, nil
	}

	printer := message.NewPrinter(language.English)
	var out []Violation
	for _, cause := range flatten(ve) {
		out = append(out, Violation{
			Path:    strings.Join(cause.InstanceLocation, "/"),
			Message: cause.ErrorKind.LocalizedString(printer),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func flatten(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flatten(cause)...)
	}
	return flat
}

// normalize turns the map[any]any yaml.v3 produces for non-string keys (such
// as numeric coordinate keys) into JSON-encodable maps.
func normalize(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		for k, vv := range typed {
			typed[k] = normalize(vv)
		}
		return typed
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, vv := range typed {
			out[fmt.Sprint(k)] = normalize(vv)
		}
		return out
	case []any:
		for i, vv := range typed {
			typed[i] = normalize(vv)
		}
		return typed
	default:
		return v
	}
}
