package generate

import "metacx/internal/types"

// ProjectToolSchemas projects function definitions into the function-calling
// schema shape LLM runtimes expect. One schema per function, in input order;
// properties follow parameter order and required is never null.
func ProjectToolSchemas(defs []types.FunctionDefinition) []types.ToolSchema {
	schemas := make([]types.ToolSchema, 0, len(defs))
	for _, d := range defs {
		props := make(types.ToolProperties, 0, len(d.Parameters))
		required := []string{}
		for _, p := range d.Parameters {
			props = append(props, types.ToolProperty{
				Name:        p.Name,
				Type:        string(p.Type),
				Description: p.Description,
			})
			if p.Required {
				required = append(required, p.Name)
			}
		}
		schemas = append(schemas, types.ToolSchema{
			Type: "function",
			Function: types.ToolFunction{
				Name:        d.Name,
				Description: d.Description,
				Parameters: types.ToolParameters{
					Type:       "object",
					Properties: props,
					Required:   required,
				},
			},
		})
	}
	return schemas
}
