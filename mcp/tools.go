package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mcpchat/mcpchat/tools"
)

// ServerTool implements the tools.Tool interface for a tool discovered on an
// MCP server: running it forwards the call over the client connection.
type ServerTool struct {
	client  *Client
	mcpTool Tool
	schema  *tools.FunctionSchema
	label   string
}

// NewServerTool creates a ServerTool from a discovered tool definition.
func NewServerTool(client *Client, mcpTool Tool) *ServerTool {
	params := tools.Schema(mcpTool.InputSchema)
	if params == nil {
		params = tools.ObjectSchema()
	}
	schema := &tools.FunctionSchema{
		Name:        mcpTool.Name,
		Description: mcpTool.Description,
		Parameters:  params,
	}

	label := mcpTool.Name
	if mcpTool.Description != "" {
		label = mcpTool.Description
	}

	return &ServerTool{
		client:  client,
		mcpTool: mcpTool,
		schema:  schema,
		label:   label,
	}
}

// Label returns a human-readable title for the tool.
func (t *ServerTool) Label() string {
	return t.label
}

// Description returns the description of the tool.
func (t *ServerTool) Description() string {
	return t.mcpTool.Description
}

// FuncName returns the function name for the tool.
func (t *ServerTool) FuncName() string {
	return t.mcpTool.Name
}

// Schema returns the JSON schema for the tool.
func (t *ServerTool) Schema() *tools.FunctionSchema {
	return t.schema
}

// Run forwards the call to the MCP server and converts the response into a
// tool result for the chat engine.
func (t *ServerTool) Run(r tools.Runner, params json.RawMessage) tools.Result {
	var args map[string]any
	if len(params) > 0 {
		if err := json.Unmarshal(params, &args); err != nil {
			return tools.ErrorWithLabel("Parameter parsing failed",
				fmt.Errorf("failed to parse parameters for %s: %w", t.mcpTool.Name, err))
		}
	}

	resp, err := t.client.CallTool(r.Context(), t.mcpTool.Name, args)
	if err != nil {
		return tools.ErrorWithLabel("MCP tool execution failed",
			fmt.Errorf("failed to call MCP tool %s: %w", t.mcpTool.Name, err))
	}

	if resp.IsError {
		errorMsg := "MCP tool returned error"
		if len(resp.Content) > 0 {
			errorMsg = resp.Content[0].Text
		}
		return tools.ErrorWithLabel("MCP tool error", fmt.Errorf("%s", errorMsg))
	}

	if len(resp.Content) == 0 {
		return tools.SuccessWithLabel(t.mcpTool.Name, map[string]any{"result": "success"})
	}

	// A single text content item is the overwhelmingly common case.
	if len(resp.Content) == 1 && resp.Content[0].Type == "text" {
		return tools.SuccessWithLabel(t.mcpTool.Name, map[string]any{
			"result": resp.Content[0].Text,
		})
	}

	contentData := make([]map[string]any, len(resp.Content))
	for i, item := range resp.Content {
		contentData[i] = map[string]any{
			"type": item.Type,
			"text": item.Text,
		}
	}
	return tools.SuccessWithLabel(t.mcpTool.Name, map[string]any{
		"content": contentData,
	})
}
