package tools

import "encoding/json"

// Schema is a JSON Schema fragment. Tool parameter schemas arrive from MCP
// servers as arbitrary JSON Schema objects and are forwarded to the model API
// untouched, so they are kept as plain maps rather than a typed tree.
type Schema map[string]any

// ObjectSchema returns a minimal empty object schema, used when a tool
// declares no parameters.
func ObjectSchema() Schema {
	return Schema{"type": "object", "properties": map[string]any{}}
}

// FunctionSchema describes one callable function as declared to the model.
type FunctionSchema struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  Schema `json:"parameters"`
}

// Clone returns a deep copy of the schema via a JSON round-trip. Providers may
// mutate the declaration payloads they build, so each gets its own copy.
func (s Schema) Clone() Schema {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var out Schema
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
