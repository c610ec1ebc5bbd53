package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpchat/mcpchat/mcp"
)

// runDemo feeds newline-delimited JSON-RPC requests to the demo server and
// decodes each response line.
func runDemo(t *testing.T, lines ...string) []demoResponse {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, runDemoServer(strings.NewReader(strings.Join(lines, "\n")), &out))

	var responses []demoResponse
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp demoResponse
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		responses = append(responses, resp)
	}
	return responses
}

func resultAs(t *testing.T, resp demoResponse, target any) {
	t.Helper()
	require.Nil(t, resp.Error)
	data, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target))
}

func TestDemoServerInitialize(t *testing.T) {
	responses := runDemo(t, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	require.Len(t, responses, 1)

	var result mcp.InitializeResponse
	resultAs(t, responses[0], &result)
	assert.Equal(t, "2024-11-05", result.ProtocolVersion)
	assert.Equal(t, "mcpchat-demo", result.ServerInfo.Name)
}

func TestDemoServerIgnoresNotifications(t *testing.T) {
	responses := runDemo(t,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`,
	)
	// Only the request got an answer.
	require.Len(t, responses, 1)
}

func TestDemoServerListsCapabilities(t *testing.T) {
	responses := runDemo(t,
		`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":2,"method":"prompts/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"resources/list"}`,
	)
	require.Len(t, responses, 3)

	var toolsResult mcp.ListToolsResponse
	resultAs(t, responses[0], &toolsResult)
	require.Len(t, toolsResult.Tools, 2)
	assert.Equal(t, "greet", toolsResult.Tools[0].Name)
	assert.Equal(t, "add", toolsResult.Tools[1].Name)

	var promptsResult mcp.ListPromptsResponse
	resultAs(t, responses[1], &promptsResult)
	require.Len(t, promptsResult.Prompts, 1)
	assert.Equal(t, "introduce", promptsResult.Prompts[0].Name)

	var resourcesResult mcp.ListResourcesResponse
	resultAs(t, responses[2], &resourcesResult)
	require.Len(t, resourcesResult.Resources, 1)
	assert.Equal(t, aboutResourceURI, resourcesResult.Resources[0].URI)
}

func TestDemoServerGreet(t *testing.T) {
	responses := runDemo(t, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"greet","arguments":{"name":"Ada"}}}`)
	require.Len(t, responses, 1)

	var result mcp.CallToolResponse
	resultAs(t, responses[0], &result)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "Hello, Ada!", result.Content[0].Text)
}

func TestDemoServerAdd(t *testing.T) {
	responses := runDemo(t, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"add","arguments":{"a":2,"b":2.5}}}`)
	require.Len(t, responses, 1)

	var result mcp.CallToolResponse
	resultAs(t, responses[0], &result)
	assert.Equal(t, "4.5", result.Content[0].Text)
}

func TestDemoServerToolErrors(t *testing.T) {
	responses := runDemo(t,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"greet","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"nope"}}`,
		`{"jsonrpc":"2.0","id":3,"method":"bogus/method"}`,
	)
	require.Len(t, responses, 3)

	// Missing argument is a tool-level error, not a protocol error.
	var result mcp.CallToolResponse
	resultAs(t, responses[0], &result)
	assert.True(t, result.IsError)

	require.NotNil(t, responses[1].Error)
	assert.Equal(t, -32601, responses[1].Error.Code)

	require.NotNil(t, responses[2].Error)
	assert.Contains(t, responses[2].Error.Message, "method not found")
}

func TestDemoServerReadsPromptAndResource(t *testing.T) {
	responses := runDemo(t,
		`{"jsonrpc":"2.0","id":1,"method":"prompts/get","params":{"name":"introduce"}}`,
		`{"jsonrpc":"2.0","id":2,"method":"resources/read","params":{"uri":"demo://about"}}`,
	)
	require.Len(t, responses, 2)

	var promptResult mcp.GetPromptResponse
	resultAs(t, responses[0], &promptResult)
	require.Len(t, promptResult.Messages, 1)
	assert.Equal(t, "user", promptResult.Messages[0].Role)

	var resourceResult mcp.ReadResourceResponse
	resultAs(t, responses[1], &resourceResult)
	require.Len(t, resourceResult.Contents, 1)
	assert.Contains(t, resourceResult.Contents[0].Text, "greet")
}
