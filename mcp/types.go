// Package mcp implements a Model Context Protocol client: JSON-RPC 2.0 over a
// stdio subprocess or an HTTP endpoint, capability discovery (prompts,
// resources, tools), and tool invocation. Discovered tools are bridged into
// the chat engine's toolbox so the model can call them.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
)

// ID represents a JSON-RPC ID that can be either a string or number.
type ID struct {
	isString bool
	strVal   string
	numVal   float64
}

// NewStringID creates an ID from a string.
func NewStringID(s string) ID {
	return ID{isString: true, strVal: s}
}

// NewNumberID creates an ID from a number.
func NewNumberID(n float64) ID {
	return ID{isString: false, numVal: n}
}

// String returns a string representation for use as a map key.
func (id ID) String() string {
	if id.isString {
		return id.strVal
	}
	return fmt.Sprintf("%.0f", id.numVal)
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.isString {
		return json.Marshal(id.strVal)
	}
	return json.Marshal(id.numVal)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	var strVal string
	if err := json.Unmarshal(data, &strVal); err == nil {
		*id = NewStringID(strVal)
		return nil
	}

	var numVal float64
	if err := json.Unmarshal(data, &numVal); err == nil {
		*id = NewNumberID(numVal)
		return nil
	}

	return fmt.Errorf("ID must be string or number")
}

// JSON-RPC 2.0 message types

type JSONRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      ID     `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type JSONRPCNotification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      ID              `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *JSONRPCError) Error() string {
	return fmt.Sprintf("JSON-RPC error %d: %s", e.Code, e.Message)
}

// MCP protocol types

type InitializeRequest struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      ClientInfo     `json:"clientInfo"`
}

type InitializeResponse struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
}

type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ListToolsResponse struct {
	Tools []Tool `json:"tools"`
}

type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema"`
}

type ListPromptsResponse struct {
	Prompts []Prompt `json:"prompts"`
}

type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

type GetPromptRequest struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

type GetPromptResponse struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

type PromptMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

type ListResourcesResponse struct {
	Resources []Resource `json:"resources"`
}

type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

type ReadResourceRequest struct {
	URI string `json:"uri"`
}

type ReadResourceResponse struct {
	Contents []ResourceContents `json:"contents"`
}

type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

type CallToolRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

type CallToolResponse struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Transport is the interface for delivering JSON-RPC messages to an MCP
// server. Responses arrive asynchronously via Receive; the client correlates
// them with pending requests by ID.
type Transport interface {
	Send(ctx context.Context, request JSONRPCRequest) error
	SendNotification(ctx context.Context, notification JSONRPCNotification) error
	Receive() (JSONRPCResponse, error)
	Close() error
}
