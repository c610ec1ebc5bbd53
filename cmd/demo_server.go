package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcpchat/mcpchat/mcp"
)

var demoServerCmd = &cobra.Command{
	Use:    "demo-server",
	Short:  "Run a small MCP server over stdio",
	Hidden: true,
	Long: `Run a small MCP server that speaks JSON-RPC over stdio. It exposes a
couple of tools, a prompt, and a resource, which makes it handy for
trying the chat UI without installing any external server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDemoServer(os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(demoServerCmd)
}

// Raw-message variants of the JSON-RPC types. A server echoes IDs verbatim
// and decodes params per method, so both stay raw here.
type demoRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type demoResponse struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id,omitempty"`
	Result  any               `json:"result,omitempty"`
	Error   *mcp.JSONRPCError `json:"error,omitempty"`
}

const aboutResourceURI = "demo://about"

func runDemoServer(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		var req demoRequest
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}
		if len(req.ID) == 0 {
			// Notification, nothing to answer.
			continue
		}
		resp := demoResponse{JSONRPC: "2.0", ID: req.ID}

		switch req.Method {
		case "initialize":
			resp.Result = mcp.InitializeResponse{
				ProtocolVersion: "2024-11-05",
				Capabilities: map[string]any{
					"tools":     map[string]any{},
					"prompts":   map[string]any{},
					"resources": map[string]any{},
				},
				ServerInfo: mcp.ServerInfo{Name: "mcpchat-demo", Version: version},
			}
		case "tools/list":
			resp.Result = mcp.ListToolsResponse{Tools: demoTools()}
		case "prompts/list":
			resp.Result = mcp.ListPromptsResponse{Prompts: demoPrompts()}
		case "resources/list":
			resp.Result = mcp.ListResourcesResponse{Resources: demoResources()}
		case "prompts/get":
			resp.Result, resp.Error = demoGetPrompt(req.Params)
		case "resources/read":
			resp.Result, resp.Error = demoReadResource(req.Params)
		case "tools/call":
			resp.Result, resp.Error = demoCallTool(req.Params)
		default:
			resp.Error = &mcp.JSONRPCError{Code: -32601, Message: fmt.Sprintf("method not found: %s", req.Method)}
		}

		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func demoTools() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "greet",
			Description: "Greet someone by name",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name": map[string]any{
						"type":        "string",
						"description": "Name of the person to greet",
					},
				},
				"required": []string{"name"},
			},
		},
		{
			Name:        "add",
			Description: "Add two numbers",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"a": map[string]any{"type": "number"},
					"b": map[string]any{"type": "number"},
				},
				"required": []string{"a", "b"},
			},
		},
	}
}

func demoPrompts() []mcp.Prompt {
	return []mcp.Prompt{
		{
			Name:        "introduce",
			Description: "Introduce yourself and list what you can do here",
		},
	}
}

func demoResources() []mcp.Resource {
	return []mcp.Resource{
		{
			URI:      aboutResourceURI,
			Name:     "About this server",
			MimeType: "text/plain",
		},
	}
}

func demoGetPrompt(params json.RawMessage) (any, *mcp.JSONRPCError) {
	var req mcp.GetPromptRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, &mcp.JSONRPCError{Code: -32602, Message: "invalid params"}
	}
	if req.Name != "introduce" {
		return nil, &mcp.JSONRPCError{Code: -32602, Message: fmt.Sprintf("prompt not found: %s", req.Name)}
	}
	return mcp.GetPromptResponse{
		Description: "Introduce yourself and list what you can do here",
		Messages: []mcp.PromptMessage{
			{
				Role: "user",
				Content: mcp.Content{
					Type: "text",
					Text: "Introduce yourself and briefly list the tools you have available.",
				},
			},
		},
	}, nil
}

func demoReadResource(params json.RawMessage) (any, *mcp.JSONRPCError) {
	var req mcp.ReadResourceRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, &mcp.JSONRPCError{Code: -32602, Message: "invalid params"}
	}
	if req.URI != aboutResourceURI {
		return nil, &mcp.JSONRPCError{Code: -32602, Message: fmt.Sprintf("resource not found: %s", req.URI)}
	}
	return mcp.ReadResourceResponse{
		Contents: []mcp.ResourceContents{
			{
				URI:      aboutResourceURI,
				MimeType: "text/plain",
				Text:     "A tiny MCP server bundled with mcpchat. It can greet people and add numbers.",
			},
		},
	}, nil
}

func demoCallTool(params json.RawMessage) (any, *mcp.JSONRPCError) {
	var req mcp.CallToolRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, &mcp.JSONRPCError{Code: -32602, Message: "invalid params"}
	}

	textResult := func(text string) mcp.CallToolResponse {
		return mcp.CallToolResponse{Content: []mcp.Content{{Type: "text", Text: text}}}
	}
	errorResult := func(text string) mcp.CallToolResponse {
		return mcp.CallToolResponse{Content: []mcp.Content{{Type: "text", Text: text}}, IsError: true}
	}

	switch req.Name {
	case "greet":
		name, _ := req.Arguments["name"].(string)
		if name == "" {
			return errorResult("greet requires a name"), nil
		}
		return textResult(fmt.Sprintf("Hello, %s!", name)), nil
	case "add":
		a, okA := req.Arguments["a"].(float64)
		b, okB := req.Arguments["b"].(float64)
		if !okA || !okB {
			return errorResult("add requires numbers a and b"), nil
		}
		return textResult(fmt.Sprintf("%g", a+b)), nil
	default:
		return nil, &mcp.JSONRPCError{Code: -32601, Message: fmt.Sprintf("tool not found: %s", req.Name)}
	}
}
