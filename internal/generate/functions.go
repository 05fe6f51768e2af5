package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	llmclient "metacx/internal/llmClient"
	"metacx/internal/types"
	"metacx/internal/util/jsonutil"
)

const functionsPrompt = `You write callable function definitions for a phone agent's backend.

Return STRICT JSON only (no markdown, no commentary):
{
  "functions": [
    {
      "name": "<snake_case name>",
      "description": "<what the function does>",
      "parameters": [
        {"name": "<snake_case>", "type": "string|integer|number|boolean|array|object", "description": "<desc>", "required": <bool>}
      ],
      "returns_description": "<what the call returns>",
      "api_endpoint": {
        "url": "<https URL under /api/v1/>",
        "method": "GET|POST|PUT|PATCH|DELETE",
        "headers": {"Content-Type": "application/json"},
        "auth_type": "bearer",
        "timeout_seconds": <int>
      },
      "mock_response": {<realistic example response>}
    }
  ]
}

Rules:
- One function per entry in the input's functions_needed, same order, same names.
- Read operations use GET, submissions use POST.
- Do not add functions the input does not ask for.`

const functionsSchema = `{
  "type": "object",
  "required": ["functions"],
  "properties": {
    "functions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "description", "parameters"],
        "properties": {
          "name": {"type": "string", "pattern": "^[a-z][a-z0-9_]*$"},
          "description": {"type": "string", "minLength": 1},
          "parameters": {
            "type": ["array", "null"],
            "items": {
              "type": "object",
              "required": ["name", "type"],
              "properties": {
                "name": {"type": "string", "minLength": 1},
                "type": {"type": "string", "enum": ["string", "integer", "number", "boolean", "array", "object"]},
                "description": {"type": "string"},
                "required": {"type": "boolean"}
              }
            }
          },
          "returns_description": {"type": "string"},
          "api_endpoint": {
            "type": ["object", "null"],
            "required": ["url", "method"],
            "properties": {
              "url": {"type": "string", "minLength": 1},
              "method": {"type": "string", "enum": ["GET", "POST", "PUT", "PATCH", "DELETE"]},
              "headers": {"type": ["object", "null"]},
              "auth_type": {"type": "string"},
              "timeout_seconds": {"type": "integer"}
            }
          },
          "mock_response": {"type": ["object", "null"]}
        }
      }
    }
  }
}`

var functionsSchemaLoader = gojsonschema.NewStringLoader(functionsSchema)

type functionsEnvelope struct {
	Functions []types.FunctionDefinition `json:"functions"`
}

// FunctionGenerator is stage 2b: it turns the brief's function requirements
// into full definitions with endpoints and mock responses. Dual mode, never
// fails; function ids are filled in by the merge step.
type FunctionGenerator struct {
	LLM llmclient.LLMClient
	Log *zap.Logger
}

func NewFunctionGenerator(llm llmclient.LLMClient, log *zap.Logger) *FunctionGenerator {
	if log == nil {
		log = zap.NewNop()
	}
	return &FunctionGenerator{LLM: llm, Log: log}
}

func (g *FunctionGenerator) Generate(ctx context.Context, brief types.AnalysisBrief) ([]types.FunctionDefinition, bool) {
	if g.LLM != nil {
		defs, err := g.fromModel(ctx, brief)
		if err == nil {
			return defs, true
		}
		g.Log.Warn("function generation fell back to templates", zap.Error(err))
	}
	return BuildFunctions(brief), false
}

func (g *FunctionGenerator) fromModel(ctx context.Context, brief types.AnalysisBrief) ([]types.FunctionDefinition, error) {
	raw, err := g.LLM.GenerateJSON(ctx, functionsPrompt, brief)
	if err != nil {
		return nil, err
	}
	body := jsonutil.StripFences(raw)
	result, err := gojsonschema.Validate(functionsSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("functions schema: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("functions schema: %s", strings.Join(msgs, "; "))
	}
	var env functionsEnvelope
	if err := jsonutil.UnmarshalModelOutput(body, &env); err != nil {
		return nil, err
	}
	if len(env.Functions) == 0 && len(brief.FunctionsNeeded) > 0 {
		return nil, fmt.Errorf("functions: empty completion for %d requirements", len(brief.FunctionsNeeded))
	}
	// The flow graph references functions by the brief's names; a completion
	// that renames or drops one would merge into a broken config.
	have := map[string]bool{}
	for _, d := range env.Functions {
		have[d.Name] = true
	}
	for _, req := range brief.FunctionsNeeded {
		if !have[req.Name] {
			return nil, fmt.Errorf("functions: completion is missing %q", req.Name)
		}
	}
	return dedupeFunctions(env.Functions), nil
}

// BuildFunctions renders each requirement into a full definition using the
// verb and response templates.
func BuildFunctions(brief types.AnalysisBrief) []types.FunctionDefinition {
	defs := make([]types.FunctionDefinition, 0, len(brief.FunctionsNeeded))
	for _, req := range brief.FunctionsNeeded {
		params := make([]types.FunctionParameter, 0, len(req.InputParams))
		for _, p := range req.InputParams {
			typ := types.ParamType(p.Type)
			if !typ.Valid() {
				typ = types.ParamString
			}
			params = append(params, types.FunctionParameter{
				Name:        p.Name,
				Type:        typ,
				Description: p.Description,
				Required:    true,
			})
		}
		defs = append(defs, types.FunctionDefinition{
			Name:               req.Name,
			Description:        req.Purpose,
			Parameters:         params,
			ReturnsDescription: req.ExpectedOutput,
			APIEndpoint: &types.APIEndpoint{
				URL:            "https://api.example.com/api/v1/" + endpointPath(req.Name),
				Method:         inferMethod(req.Name),
				Headers:        map[string]string{"Content-Type": "application/json"},
				AuthType:       "bearer",
				TimeoutSeconds: 10,
			},
			MockResponse: mockResponse(req.Name),
		})
	}
	return dedupeFunctions(defs)
}

func dedupeFunctions(defs []types.FunctionDefinition) []types.FunctionDefinition {
	seen := map[string]bool{}
	out := defs[:0]
	for _, d := range defs {
		if seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		out = append(out, d)
	}
	return out
}

var methodVerbs = map[string]types.HTTPMethod{
	"get":    types.MethodGet,
	"fetch":  types.MethodGet,
	"check":  types.MethodGet,
	"lookup": types.MethodGet,
	"list":   types.MethodGet,
	"create": types.MethodPost,
	"submit": types.MethodPost,
	"book":   types.MethodPost,
	"store":  types.MethodPost,
	"send":   types.MethodPost,
	"update": types.MethodPut,
	"cancel": types.MethodDelete,
	"delete": types.MethodDelete,
}

func inferMethod(funcName string) types.HTTPMethod {
	verb, _, _ := strings.Cut(funcName, "_")
	if m, ok := methodVerbs[verb]; ok {
		return m
	}
	return types.MethodPost
}

// endpointPath strips a leading verb and hyphenates the rest, so
// get_appointment_slots becomes appointment-slots.
func endpointPath(funcName string) string {
	verb, rest, found := strings.Cut(funcName, "_")
	if _, known := methodVerbs[verb]; !known || !found {
		rest = funcName
	}
	return strings.ReplaceAll(rest, "_", "-")
}

func mockResponse(funcName string) map[string]any {
	switch funcName {
	case "get_appointment_slots":
		return map[string]any{
			"status":          "success",
			"available_slots": []any{"09:00", "10:30", "14:00"},
			"booking_ref":     "APT-20451",
		}
	case "check_availability":
		return map[string]any{"status": "success", "available": true}
	case "get_order_status":
		return map[string]any{
			"status":             "success",
			"order_status":       "shipped",
			"estimated_delivery": "in 2 days",
			"tracking_number":    "TRK-884213",
		}
	case "get_account_details":
		return map[string]any{
			"status":       "success",
			"balance":      2450.75,
			"account_type": "standard",
		}
	case "submit_complaint":
		return map[string]any{
			"status":              "success",
			"ticket_id":           "TKT-10245",
			"expected_resolution": "within 48 hours",
		}
	case "process_cancellation":
		return map[string]any{
			"status":        "success",
			"cancelled":     true,
			"refund_status": "initiated",
		}
	case "store_customer_info":
		return map[string]any{"status": "success", "saved": true}
	}
	return map[string]any{"status": "success", "message": "Operation completed"}
}
