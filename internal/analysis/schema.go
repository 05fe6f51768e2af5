package analysis

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// briefSchema is the contract a model completion must satisfy before it is
// accepted as an analysis brief. Anything that fails here is discarded and
// the deterministic path is used instead.
const briefSchema = `{
  "type": "object",
  "required": ["domain", "agent_name_suggestion", "agent_role", "personality_traits", "greeting_style", "language", "voice_gender", "tasks", "functions_needed", "flow_summary", "platform"],
  "properties": {
    "domain": {"type": "string", "minLength": 1},
    "agent_name_suggestion": {"type": "string", "minLength": 1},
    "agent_role": {"type": "string", "minLength": 1},
    "personality_traits": {"type": "array", "items": {"type": "string"}, "minItems": 1},
    "greeting_style": {"type": "string", "minLength": 1},
    "language": {"type": "string", "minLength": 1},
    "voice_gender": {"type": "string", "enum": ["male", "female", "neutral"]},
    "tasks": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["task_name", "description"],
        "properties": {
          "task_name": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "data_to_collect": {"type": ["array", "null"], "items": {"type": "string"}},
          "requires_api": {"type": "boolean"},
          "api_description": {"type": "string"}
        }
      }
    },
    "functions_needed": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "purpose"],
        "properties": {
          "name": {"type": "string", "pattern": "^[a-z][a-z0-9_]*$"},
          "purpose": {"type": "string"},
          "input_params": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "required": ["name", "type"],
              "properties": {
                "name": {"type": "string", "minLength": 1},
                "type": {"type": "string", "enum": ["string", "integer", "number", "boolean", "array", "object"]},
                "description": {"type": "string"}
              }
            }
          },
          "expected_output": {"type": "string"}
        }
      }
    },
    "flow_summary": {"type": "array", "items": {"type": "string"}},
    "ambiguities": {"type": ["array", "null"], "items": {"type": "string"}},
    "platform": {"type": "string", "minLength": 1}
  }
}`

var briefSchemaLoader = gojsonschema.NewStringLoader(briefSchema)

// ValidateBriefJSON checks a raw completion against the brief schema.
func ValidateBriefJSON(raw []byte) error {
	result, err := gojsonschema.Validate(briefSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("brief schema: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("brief schema: %s", strings.Join(msgs, "; "))
}
