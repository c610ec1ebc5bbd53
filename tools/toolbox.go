package tools

import (
	"encoding/json"
	"fmt"
)

// Toolbox is the set of tools offered to the model for one conversation,
// keyed by function name. In this application it holds the bridged tools of
// the currently selected MCP server.
type Toolbox struct {
	tools map[string]Tool
}

// Box returns a new Toolbox containing the given tools.
func Box(tools ...Tool) *Toolbox {
	t := &Toolbox{
		tools: make(map[string]Tool),
	}
	for _, tool := range tools {
		t.Add(tool)
	}
	return t
}

// Add registers a tool under its function name. Names must be unique since
// they are what the model calls tools by.
func (t *Toolbox) Add(tool Tool) {
	funcName := tool.FuncName()
	if _, ok := t.tools[funcName]; ok {
		panic(fmt.Sprintf("tool %q already exists", funcName))
	}
	t.tools[funcName] = tool
}

// All returns every registered tool. It is nil-safe so callers can iterate
// even when no server is selected and no toolbox was configured.
func (t *Toolbox) All() []Tool {
	tools := []Tool{}
	if t == nil {
		return tools
	}
	for _, tool := range t.tools {
		tools = append(tools, tool)
	}
	return tools
}

// Get returns the tool with the given function name, or nil when the model
// asks for a tool that was never offered.
func (t *Toolbox) Get(funcName string) Tool {
	if t == nil {
		return nil
	}
	return t.tools[funcName]
}

// Run dispatches a tool call by name. Unknown names become an error Result
// rather than a failure, so the model gets told what went wrong.
func (t *Toolbox) Run(r Runner, funcName string, params json.RawMessage) Result {
	tool := t.Get(funcName)
	if tool == nil {
		err := fmt.Errorf("tool %q not found", funcName)
		return Error(err)
	}
	return tool.Run(r, params)
}
