package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mcpHTTPServer is an httptest-backed MCP server speaking JSON-RPC over POST.
type mcpHTTPServer struct {
	mu      sync.Mutex
	headers []http.Header
}

func (s *mcpHTTPServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.headers = append(s.headers, r.Header.Clone())
		s.mu.Unlock()

		var req demoJSONRPC
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(req.ID) == 0 {
			// Notification.
			w.WriteHeader(http.StatusAccepted)
			return
		}

		resp := map[string]any{"jsonrpc": "2.0", "id": json.RawMessage(req.ID)}
		switch req.Method {
		case "initialize":
			resp["result"] = InitializeResponse{
				ProtocolVersion: protocolVersion,
				ServerInfo:      ServerInfo{Name: "http-server", Version: "0.1"},
			}
		case "tools/list":
			resp["result"] = ListToolsResponse{
				Tools: []Tool{{Name: "echo", InputSchema: map[string]any{"type": "object"}}},
			}
		case "prompts/list":
			resp["result"] = ListPromptsResponse{}
		case "resources/list":
			resp["result"] = ListResourcesResponse{}
		default:
			resp["error"] = JSONRPCError{Code: -32601, Message: "method not found"}
		}
		json.NewEncoder(w).Encode(resp)
	}
}

type demoJSONRPC struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

func TestHTTPTransportRoundTrip(t *testing.T) {
	server := &mcpHTTPServer{}
	ts := httptest.NewServer(server.handler())
	defer ts.Close()

	transport := NewHTTPTransport(ts.URL, map[string]string{"X-Api-Key": "secret"}, nil)
	defer transport.Close()

	require.NoError(t, transport.Send(context.Background(), JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      NewNumberID(1),
		Method:  "initialize",
		Params:  InitializeRequest{ProtocolVersion: protocolVersion},
	}))

	resp, err := transport.Receive()
	require.NoError(t, err)
	assert.Equal(t, "1", resp.ID.String())
	require.Nil(t, resp.Error)

	var result InitializeResponse
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, "http-server", result.ServerInfo.Name)

	// Custom headers ride along on every request.
	server.mu.Lock()
	defer server.mu.Unlock()
	require.NotEmpty(t, server.headers)
	assert.Equal(t, "secret", server.headers[0].Get("X-Api-Key"))
	assert.Equal(t, "application/json", server.headers[0].Get("Content-Type"))
}

func TestHTTPTransportNotification(t *testing.T) {
	server := &mcpHTTPServer{}
	ts := httptest.NewServer(server.handler())
	defer ts.Close()

	transport := NewHTTPTransport(ts.URL, nil, nil)
	defer transport.Close()

	err := transport.SendNotification(context.Background(), JSONRPCNotification{
		JSONRPC: "2.0",
		Method:  "notifications/initialized",
	})
	assert.NoError(t, err)
}

func TestHTTPTransportServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer ts.Close()

	transport := NewHTTPTransport(ts.URL, nil, nil)
	defer transport.Close()

	err := transport.Send(context.Background(), JSONRPCRequest{JSONRPC: "2.0", ID: NewNumberID(1), Method: "initialize"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

// hungServer accepts requests and never answers until the test ends.
func hungServer(t *testing.T) *httptest.Server {
	t.Helper()
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		ts.Close()
	})
	return ts
}

func TestHTTPTransportHonorsContextDeadline(t *testing.T) {
	ts := hungServer(t)

	transport := NewHTTPTransport(ts.URL, nil, nil)
	defer transport.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := transport.Send(ctx, JSONRPCRequest{JSONRPC: "2.0", ID: NewNumberID(1), Method: "initialize"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

// A hung HTTP server must not defeat the client timeout: the send itself is
// bounded, not just the wait for the response.
func TestClientTimeoutOverHungHTTPServer(t *testing.T) {
	ts := hungServer(t)

	client := NewClient(NewHTTPTransport(ts.URL, nil, nil))
	client.StartResponseHandler()
	client.SetTimeout(100 * time.Millisecond)
	t.Cleanup(func() { client.Close() })

	start := time.Now()
	_, err := client.ListTools(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestHTTPTransportReceiveAfterClose(t *testing.T) {
	transport := NewHTTPTransport("http://localhost:0", nil, nil)
	require.NoError(t, transport.Close())

	_, err := transport.Receive()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport closed")
}

func TestConnectTransportValidation(t *testing.T) {
	_, err := ConnectTransport(TransportConfig{Type: "stdio"})
	assert.Error(t, err)

	_, err = ConnectTransport(TransportConfig{Type: "tcp"})
	assert.Error(t, err)

	_, err = ConnectTransport(TransportConfig{Type: "http"})
	assert.Error(t, err)

	_, err = ConnectTransport(TransportConfig{Type: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport type")
}

// TestSessionOverHTTP exercises the full connect-and-inspect path against an
// HTTP MCP server.
func TestSessionOverHTTP(t *testing.T) {
	server := &mcpHTTPServer{}
	ts := httptest.NewServer(server.handler())
	defer ts.Close()

	session, err := Connect(context.Background(), "web", ServerConfig{URL: ts.URL})
	require.NoError(t, err)
	defer session.Close()

	assert.Equal(t, "web", session.Name)
	assert.Equal(t, "http-server", session.Server.Name)
	assert.Empty(t, session.Warnings)
	require.Len(t, session.Tools, 1)
	assert.Equal(t, "echo", session.Tools[0].Name)

	engineTools := session.EngineTools()
	require.Len(t, engineTools, 1)
	assert.Equal(t, "echo", engineTools[0].FuncName())
}

// TestSessionWarnings checks that a server that cannot list prompts still
// produces a usable session with a section warning.
func TestSessionWarnings(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req demoJSONRPC
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(req.ID) == 0 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": json.RawMessage(req.ID)}
		switch req.Method {
		case "initialize":
			resp["result"] = InitializeResponse{ProtocolVersion: protocolVersion, ServerInfo: ServerInfo{Name: "tools-only"}}
		case "tools/list":
			resp["result"] = ListToolsResponse{Tools: []Tool{{Name: "echo"}}}
		default:
			resp["error"] = JSONRPCError{Code: -32601, Message: "method not found"}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	session, err := Connect(context.Background(), "partial", ServerConfig{URL: ts.URL})
	require.NoError(t, err)
	defer session.Close()

	require.Len(t, session.Tools, 1)
	require.Len(t, session.Warnings, 2)
	assert.Contains(t, session.Warnings[0], "prompt list")
	assert.Contains(t, session.Warnings[1], "resource list")
}
