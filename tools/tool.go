package tools

import (
	"encoding/json"
)

type Tool interface {
	// Label returns a nice human readable title for the tool.
	Label() string
	// Description returns the description of the tool.
	Description() string
	// FuncName returns the function name for the tool.
	FuncName() string
	// Run runs the tool with the provided parameters.
	Run(r Runner, params json.RawMessage) Result
	// Schema returns the JSON schema for the tool.
	Schema() *FunctionSchema
}

// External returns a tool backed by an explicit schema and a handler that
// receives the raw JSON arguments. Every tool in this application is external:
// the schema comes from an MCP server's tools/list response and the handler
// forwards the call over the wire.
func External(label string, schema *FunctionSchema, fn func(r Runner, params json.RawMessage) Result) Tool {
	if schema == nil {
		panic("External requires a non-nil schema")
	}
	return &tool{
		label:       label,
		description: schema.Description,
		funcName:    schema.Name,
		schema:      schema,
		fn:          fn,
	}
}

type tool struct {
	label, description, funcName string

	fn     func(r Runner, params json.RawMessage) Result
	schema *FunctionSchema
}

func (t *tool) Label() string {
	return t.label
}

func (t *tool) Description() string {
	return t.description
}

func (t *tool) FuncName() string {
	return t.funcName
}

func (t *tool) Run(r Runner, params json.RawMessage) Result {
	return t.fn(r, params)
}

func (t *tool) Schema() *FunctionSchema {
	return t.schema
}
