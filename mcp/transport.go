package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// TransportConfig holds the connection parameters for one MCP server.
type TransportConfig struct {
	Type string // "stdio", "tcp", or "http"

	// For stdio transport
	Command string
	Args    []string
	Env     map[string]string

	// For TCP transport
	Host string
	Port int

	// For HTTP transport
	URL     string
	Headers map[string]string
	Auth    *AuthConfig
}

// AuthConfig configures OAuth2 client-credentials authentication for HTTP
// transports. When set, each request carries a bearer token minted from the
// token endpoint.
type AuthConfig struct {
	TokenURL     string   `json:"tokenUrl"`
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	Scopes       []string `json:"scopes,omitempty"`
}

// StdioTransport launches the MCP server as a subprocess and exchanges
// newline-delimited JSON-RPC messages over its stdin/stdout.
type StdioTransport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	encoder *json.Encoder
	decoder *json.Decoder
	mu      sync.Mutex
}

// NewStdioTransport creates a new stdio transport that launches a subprocess.
// The env map is appended to the current process environment, matching how
// MCP host applications launch configured servers.
func NewStdioTransport(command string, env map[string]string, args ...string) (*StdioTransport, error) {
	cmd := exec.Command(command, args...)
	cmd.Env = os.Environ()
	for key, value := range env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}
	// The server's own diagnostics go to our stderr.
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("failed to start MCP server process: %w", err)
	}

	return &StdioTransport{
		cmd:     cmd,
		stdin:   stdin,
		stdout:  stdout,
		encoder: json.NewEncoder(stdin),
		decoder: json.NewDecoder(stdout),
	}, nil
}

// Send writes the request to the subprocess. Pipe writes complete locally, so
// the context is only checked up front.
func (t *StdioTransport) Send(ctx context.Context, request JSONRPCRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.encoder.Encode(request); err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return nil
}

func (t *StdioTransport) SendNotification(ctx context.Context, notification JSONRPCNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.encoder.Encode(notification); err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	return nil
}

func (t *StdioTransport) Receive() (JSONRPCResponse, error) {
	var response JSONRPCResponse
	if err := t.decoder.Decode(&response); err != nil {
		return response, fmt.Errorf("failed to decode response: %w", err)
	}
	return response, nil
}

func (t *StdioTransport) Close() error {
	var errs []error

	if err := t.stdin.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := t.stdout.Close(); err != nil {
		errs = append(errs, err)
	}
	if t.cmd.Process != nil {
		if err := t.cmd.Process.Kill(); err != nil {
			errs = append(errs, err)
		}
		// Reap the process so it doesn't linger as a zombie.
		t.cmd.Wait()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing transport: %v", errs)
	}
	return nil
}

// TCPTransport exchanges newline-delimited JSON-RPC messages over a TCP
// connection to an already-running server.
type TCPTransport struct {
	conn    net.Conn
	encoder *json.Encoder
	decoder *json.Decoder
	mu      sync.Mutex
}

// NewTCPTransport creates a new TCP transport.
func NewTCPTransport(host string, port int) (*TCPTransport, error) {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", host, port), 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MCP server: %w", err)
	}

	return &TCPTransport{
		conn:    conn,
		encoder: json.NewEncoder(conn),
		decoder: json.NewDecoder(conn),
	}, nil
}

// Send writes the request to the connection, honoring the context deadline as
// a write deadline.
func (t *TCPTransport) Send(ctx context.Context, request JSONRPCRequest) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.applyDeadline(ctx)
	if err := t.encoder.Encode(request); err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return nil
}

func (t *TCPTransport) SendNotification(ctx context.Context, notification JSONRPCNotification) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.applyDeadline(ctx)

	if err := t.encoder.Encode(notification); err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	return nil
}

func (t *TCPTransport) applyDeadline(ctx context.Context) {
	if deadline, ok := ctx.Deadline(); ok {
		t.conn.SetWriteDeadline(deadline)
	} else {
		t.conn.SetWriteDeadline(time.Time{})
	}
}

func (t *TCPTransport) Receive() (JSONRPCResponse, error) {
	var response JSONRPCResponse
	if err := t.decoder.Decode(&response); err != nil {
		return response, fmt.Errorf("failed to decode response: %w", err)
	}
	return response, nil
}

func (t *TCPTransport) Close() error {
	return t.conn.Close()
}

// HTTPTransport speaks JSON-RPC to an MCP server over HTTP: each request is a
// POST whose response body carries the JSON-RPC response. Responses are queued
// internally so the transport presents the same asynchronous Receive surface
// as the stream-based transports.
type HTTPTransport struct {
	url     string
	headers map[string]string
	client  *http.Client

	responses chan JSONRPCResponse
	closed    chan struct{}
	closeOnce sync.Once
}

// NewHTTPTransport creates a new HTTP transport. When auth is non-nil the
// underlying client mints OAuth2 bearer tokens via the client-credentials
// flow and attaches them to every request.
func NewHTTPTransport(url string, headers map[string]string, auth *AuthConfig) *HTTPTransport {
	client := http.DefaultClient
	if auth != nil {
		cc := clientcredentials.Config{
			TokenURL:     auth.TokenURL,
			ClientID:     auth.ClientID,
			ClientSecret: auth.ClientSecret,
			Scopes:       auth.Scopes,
		}
		client = cc.Client(context.Background())
	}
	return &HTTPTransport{
		url:       url,
		headers:   headers,
		client:    client,
		responses: make(chan JSONRPCResponse, 16),
		closed:    make(chan struct{}),
	}
}

// post issues one JSON-RPC POST. The request carries the caller's context so
// a hung server cannot outlive the caller's timeout.
func (t *HTTPTransport) post(ctx context.Context, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range t.headers {
		req.Header.Set(key, value)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (t *HTTPTransport) Send(ctx context.Context, request JSONRPCRequest) error {
	resp, err := t.post(ctx, request)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("server returned %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	var response JSONRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	select {
	case t.responses <- response:
	case <-t.closed:
		return fmt.Errorf("transport closed")
	}
	return nil
}

func (t *HTTPTransport) SendNotification(ctx context.Context, notification JSONRPCNotification) error {
	resp, err := t.post(ctx, notification)
	if err != nil {
		return err
	}
	resp.Body.Close()
	// Servers answer notifications with 200 or 202 and no meaningful body.
	if resp.StatusCode >= 300 {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}

func (t *HTTPTransport) Receive() (JSONRPCResponse, error) {
	select {
	case resp := <-t.responses:
		return resp, nil
	case <-t.closed:
		return JSONRPCResponse{}, fmt.Errorf("transport closed")
	}
}

func (t *HTTPTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)
	})
	return nil
}

// ConnectTransport creates a transport based on the provided configuration.
func ConnectTransport(config TransportConfig) (Transport, error) {
	switch config.Type {
	case "stdio":
		if config.Command == "" {
			return nil, fmt.Errorf("command is required for stdio transport")
		}
		return NewStdioTransport(config.Command, config.Env, config.Args...)

	case "tcp":
		if config.Host == "" {
			config.Host = "localhost"
		}
		if config.Port == 0 {
			return nil, fmt.Errorf("port is required for tcp transport")
		}
		return NewTCPTransport(config.Host, config.Port)

	case "http":
		if config.URL == "" {
			return nil, fmt.Errorf("url is required for http transport")
		}
		return NewHTTPTransport(config.URL, config.Headers, config.Auth), nil

	default:
		return nil, fmt.Errorf("unsupported transport type: %s", config.Type)
	}
}
