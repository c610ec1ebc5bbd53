package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// protocolVersion is the MCP protocol version advertised during initialization.
const protocolVersion = "2024-11-05"

// Client represents an MCP client connection to a server.
type Client struct {
	transport Transport
	nextID    int64
	pending   map[string]chan JSONRPCResponse
	mu        sync.RWMutex

	// Connection state
	initialized bool
	closed      bool
	serverInfo  ServerInfo

	// Configuration
	clientInfo ClientInfo
	timeout    time.Duration
}

// NewClient creates a new MCP client with the given transport.
func NewClient(transport Transport) *Client {
	return &Client{
		transport: transport,
		pending:   make(map[string]chan JSONRPCResponse),
		clientInfo: ClientInfo{
			Name:    "mcpchat",
			Version: "1.0.0",
		},
		timeout: 30 * time.Second,
	}
}

// Initialize performs the MCP initialization handshake.
func (c *Client) Initialize(ctx context.Context) error {
	if c.initialized {
		return nil
	}

	req := InitializeRequest{
		ProtocolVersion: protocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      c.clientInfo,
	}

	var resp InitializeResponse
	if err := c.call(ctx, "initialize", req, &resp); err != nil {
		return fmt.Errorf("failed to initialize MCP connection: %w", err)
	}

	c.serverInfo = resp.ServerInfo

	notif := JSONRPCNotification{
		JSONRPC: "2.0",
		Method:  "notifications/initialized",
	}
	if err := c.transport.SendNotification(ctx, notif); err != nil {
		return fmt.Errorf("failed to send initialized notification: %w", err)
	}

	c.initialized = true
	return nil
}

// ListTools retrieves all available tools from the MCP server.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}

	var resp ListToolsResponse
	if err := c.call(ctx, "tools/list", struct{}{}, &resp); err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return resp.Tools, nil
}

// ListPrompts retrieves the prompts declared by the MCP server.
func (c *Client) ListPrompts(ctx context.Context) ([]Prompt, error) {
	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}

	var resp ListPromptsResponse
	if err := c.call(ctx, "prompts/list", struct{}{}, &resp); err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	return resp.Prompts, nil
}

// ListResources retrieves the resources declared by the MCP server.
func (c *Client) ListResources(ctx context.Context) ([]Resource, error) {
	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}

	var resp ListResourcesResponse
	if err := c.call(ctx, "resources/list", struct{}{}, &resp); err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	return resp.Resources, nil
}

// GetPrompt expands a named prompt with the given arguments.
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]string) (*GetPromptResponse, error) {
	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}

	req := GetPromptRequest{Name: name, Arguments: args}
	var resp GetPromptResponse
	if err := c.call(ctx, "prompts/get", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to get prompt %s: %w", name, err)
	}
	return &resp, nil
}

// ReadResource reads the contents of a resource by URI.
func (c *Client) ReadResource(ctx context.Context, uri string) (*ReadResourceResponse, error) {
	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}

	req := ReadResourceRequest{URI: uri}
	var resp ReadResourceResponse
	if err := c.call(ctx, "resources/read", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to read resource %s: %w", uri, err)
	}
	return &resp, nil
}

// CallTool executes a tool with the given arguments.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*CallToolResponse, error) {
	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}

	req := CallToolRequest{Name: name, Arguments: args}
	var resp CallToolResponse
	if err := c.call(ctx, "tools/call", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to call tool %s: %w", name, err)
	}
	return &resp, nil
}

// Close closes the MCP client connection. Pending calls fail with a
// connection-closed error.
func (c *Client) Close() error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		c.failPendingLocked()
	}
	c.mu.Unlock()

	return c.transport.Close()
}

// Connected reports whether the client can still issue requests. It turns
// false once Close is called or the transport dies.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// failPendingLocked wakes every pending caller by closing its channel. Must be
// called with the write lock held.
func (c *Client) failPendingLocked() {
	for _, ch := range c.pending {
		close(ch)
	}
	c.pending = make(map[string]chan JSONRPCResponse)
}

// call performs a JSON-RPC method call and unmarshals the result. The wait is
// bounded by both the caller's context and the client timeout, and the bound
// covers the transport send as well.
func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	idNum := atomic.AddInt64(&c.nextID, 1)
	id := NewNumberID(float64(idNum))

	req := JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}

	respChan := make(chan JSONRPCResponse, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("connection closed")
	}
	c.pending[id.String()] = respChan
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id.String())
		c.mu.Unlock()
	}()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.transport.Send(callCtx, req); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	select {
	case resp, ok := <-respChan:
		if !ok {
			return fmt.Errorf("connection closed")
		}
		if resp.Error != nil {
			return resp.Error
		}
		if result != nil && resp.Result != nil {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("failed to unmarshal result: %w", err)
			}
		}
		return nil

	case <-callCtx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("request timeout after %v", c.timeout)
	}
}

// StartResponseHandler starts a goroutine that pumps transport responses to
// their pending callers. When the transport fails or is closed, the handler
// marks the client closed and wakes every pending caller so in-flight calls
// don't sit out their full timeout.
func (c *Client) StartResponseHandler() {
	go func() {
		for {
			resp, err := c.transport.Receive()
			if err != nil {
				c.mu.Lock()
				if !c.closed {
					c.closed = true
					c.failPendingLocked()
				}
				c.mu.Unlock()
				return
			}

			// The send happens under the read lock so it cannot race the
			// channel close in failPendingLocked.
			c.mu.RLock()
			if respChan, exists := c.pending[resp.ID.String()]; exists {
				select {
				case respChan <- resp:
				default:
					// Channel full or caller gone.
				}
			}
			c.mu.RUnlock()
		}
	}()
}

// SetTimeout sets the per-request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// ServerInfo returns information about the connected MCP server.
func (c *Client) ServerInfo() ServerInfo {
	return c.serverInfo
}

// ConnectClient creates and initializes an MCP client with the given
// configuration.
func ConnectClient(ctx context.Context, config TransportConfig) (*Client, error) {
	transport, err := ConnectTransport(config)
	if err != nil {
		return nil, err
	}

	client := NewClient(transport)
	client.StartResponseHandler()

	if err := client.Initialize(ctx); err != nil {
		transport.Close()
		return nil, err
	}

	return client, nil
}
