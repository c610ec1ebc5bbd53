package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpchat/mcpchat/content"
	"github.com/mcpchat/mcpchat/llms"
	"github.com/mcpchat/mcpchat/mcp"
	"github.com/mcpchat/mcpchat/tools"
)

// scriptedProvider answers every Generate call with a fixed text, optionally
// making one tool call first.
type scriptedProvider struct {
	text     string
	toolName string
	toolArgs string
}

func (p *scriptedProvider) Company() string { return "Test" }
func (p *scriptedProvider) Model() string   { return "scripted" }

func (p *scriptedProvider) Generate(ctx context.Context, systemPrompt content.Content, messages []llms.Message, toolbox *tools.Toolbox) llms.ProviderStream {
	sawToolResponse := false
	for _, m := range messages {
		if m.Role == "tool" {
			sawToolResponse = true
		}
	}
	stream := &scriptedStream{text: p.text}
	if p.toolName != "" && !sawToolResponse {
		stream.toolCall = &llms.ToolCall{
			ID:        "call-1",
			Name:      p.toolName,
			Arguments: json.RawMessage(p.toolArgs),
		}
	}
	return stream
}

type scriptedStream struct {
	text     string
	toolCall *llms.ToolCall
	message  llms.Message
}

func (s *scriptedStream) Err() error { return nil }

func (s *scriptedStream) Iter() func(func(llms.StreamStatus) bool) {
	return func(yield func(llms.StreamStatus) bool) {
		if s.text != "" {
			if !yield(llms.StreamStatusText) {
				return
			}
		}
		if s.toolCall != nil {
			s.message.ToolCalls = append(s.message.ToolCalls, *s.toolCall)
			if !yield(llms.StreamStatusToolCallBegin) {
				return
			}
			if !yield(llms.StreamStatusToolCallReady) {
				return
			}
		}
	}
}

func (s *scriptedStream) Message() llms.Message {
	if s.message.Content == nil {
		s.message = llms.Message{
			Role:      "assistant",
			Content:   content.FromText(s.text),
			ToolCalls: s.message.ToolCalls,
		}
	}
	return s.message
}

func (s *scriptedStream) Text() string { return s.text }

func (s *scriptedStream) ToolCall() llms.ToolCall {
	if s.toolCall != nil {
		return *s.toolCall
	}
	return llms.ToolCall{}
}

func (s *scriptedStream) Usage() (int, int) { return 0, 0 }

// fakeMCPServer serves JSON-RPC over HTTP for select/inspect tests.
func fakeMCPServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
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
			resp["result"] = mcp.InitializeResponse{
				ProtocolVersion: "2024-11-05",
				ServerInfo:      mcp.ServerInfo{Name: "fake-server", Version: "0.1"},
			}
		case "tools/list":
			resp["result"] = mcp.ListToolsResponse{
				Tools: []mcp.Tool{{
					Name:        "greet",
					Description: "Greet someone",
					InputSchema: map[string]any{"type": "object"},
				}},
			}
		case "prompts/list":
			resp["result"] = mcp.ListPromptsResponse{
				Prompts: []mcp.Prompt{{Name: "introduce", Description: "Say hello"}},
			}
		case "resources/list":
			resp["result"] = mcp.ListResourcesResponse{}
		case "tools/call":
			resp["result"] = mcp.CallToolResponse{
				Content: []mcp.Content{{Type: "text", Text: "Hello, Ada!"}},
			}
		default:
			resp["error"] = mcp.JSONRPCError{Code: -32601, Message: "method not found"}
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestWebServer(t *testing.T, provider llms.Provider, mcpURL string) *WebServer {
	t.Helper()
	servers := map[string]mcp.ServerConfig{}
	if mcpURL != "" {
		servers["fake"] = mcp.ServerConfig{URL: mcpURL}
	}
	server := NewWebServer(Config{
		MCPConfig: &mcp.Config{MCPServers: servers},
		NewEngine: func(toolsList []tools.Tool) *llms.LLM {
			return llms.New(provider, toolsList...)
		},
	})
	t.Cleanup(func() { server.Close() })
	return server
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func TestIndexPage(t *testing.T) {
	server := newTestWebServer(t, &scriptedProvider{text: "hi"}, "")

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "MCP Chat")
	assert.Contains(t, body, "server-select")
	assert.Contains(t, body, "None")
}

func TestServersEndpoint(t *testing.T) {
	ts := fakeMCPServer(t)
	defer ts.Close()
	server := newTestWebServer(t, &scriptedProvider{text: "hi"}, ts.URL)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/servers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Servers  []string `json:"servers"`
		Selected string   `json:"selected"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"None", "fake"}, resp.Servers)
	assert.Equal(t, "None", resp.Selected)
}

func TestSelectServer(t *testing.T) {
	ts := fakeMCPServer(t)
	defer ts.Close()
	server := newTestWebServer(t, &scriptedProvider{text: "hi"}, ts.URL)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/select", jsonBody(t, map[string]string{"server": "fake"}))
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Selected string            `json:"selected"`
		Server   *mcp.ServerInfo   `json:"server"`
		Prompts  []mcp.Prompt      `json:"prompts"`
		Tools    []mcp.Tool        `json:"tools"`
		Config   *mcp.ServerConfig `json:"config"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "fake", resp.Selected)
	require.Len(t, resp.Tools, 1)
	assert.Equal(t, "greet", resp.Tools[0].Name)
	require.Len(t, resp.Prompts, 1)
	require.NotNil(t, resp.Config)
	assert.Equal(t, ts.URL, resp.Config.URL)
}

func TestSelectUnknownServer(t *testing.T) {
	server := newTestWebServer(t, &scriptedProvider{text: "hi"}, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/select", jsonBody(t, map[string]string{"server": "nope"}))
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSelectUnreachableServer(t *testing.T) {
	server := newTestWebServer(t, &scriptedProvider{text: "hi"}, "http://127.0.0.1:1/mcp")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/select", jsonBody(t, map[string]string{"server": "fake"}))
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// Selection falls back to none.
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/servers", nil))
	var resp struct {
		Selected string `json:"selected"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "None", resp.Selected)
}

func TestSelectNone(t *testing.T) {
	ts := fakeMCPServer(t)
	defer ts.Close()
	server := newTestWebServer(t, &scriptedProvider{text: "hi"}, ts.URL)

	// Select a server, then deselect.
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/select", jsonBody(t, map[string]string{"server": "fake"})))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/select", jsonBody(t, map[string]string{"server": "None"})))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Selected string     `json:"selected"`
		Tools    []mcp.Tool `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "None", resp.Selected)
	assert.Empty(t, resp.Tools)
}

func TestNewChatResetsConversation(t *testing.T) {
	server := newTestWebServer(t, &scriptedProvider{text: "hi"}, "")

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/conversation", nil))
	var before struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &before))

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/chat/new", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var after struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	assert.NotEqual(t, before.ID, after.ID)
}

func TestStaticAssets(t *testing.T) {
	server := newTestWebServer(t, &scriptedProvider{text: "hi"}, "")

	for _, path := range []string{"/static/app.js", "/static/style.css"} {
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
