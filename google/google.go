// Package google implements the Gemini streaming API as an llms.Provider.
package google

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mcpchat/mcpchat/content"
	"github.com/mcpchat/mcpchat/llms"
	"github.com/mcpchat/mcpchat/tools"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com"

type Model struct {
	apiKey          string
	model           string
	endpoint        string
	maxOutputTokens int
	temperature     float64
	topK            int
	topP            float64

	client *http.Client
}

func New(model, apiKey string) *Model {
	return &Model{
		apiKey:      apiKey,
		model:       model,
		endpoint:    defaultEndpoint,
		temperature: math.NaN(),
		topP:        math.NaN(),
		client:      http.DefaultClient,
	}
}

// WithEndpoint overrides the API base URL. Used by tests to point the
// provider at a local server.
func (m *Model) WithEndpoint(endpoint string) *Model {
	m.endpoint = strings.TrimSuffix(endpoint, "/")
	return m
}

func (m *Model) WithHTTPClient(client *http.Client) *Model {
	m.client = client
	return m
}

func (m *Model) WithMaxOutputTokens(maxOutputTokens int) *Model {
	m.maxOutputTokens = maxOutputTokens
	return m
}

func (m *Model) WithTemperature(temperature float64) *Model {
	m.temperature = temperature
	return m
}

func (m *Model) WithTopK(topK int) *Model {
	m.topK = topK
	return m
}

func (m *Model) WithTopP(topP float64) *Model {
	m.topP = topP
	return m
}

func (m *Model) Company() string {
	return "Google"
}

func (m *Model) Model() string {
	return m.model
}

func (m *Model) Generate(ctx context.Context, systemPrompt content.Content, messages []llms.Message, toolbox *tools.Toolbox) llms.ProviderStream {
	if m.apiKey == "" {
		return &Stream{err: fmt.Errorf("missing Gemini API key")}
	}

	var apiMessages []message
	for _, msg := range messages {
		apiMessages = append(apiMessages, messagesFromLLM(msg)...)
	}

	payload := map[string]any{
		"contents": apiMessages,
	}

	generationConfig := map[string]any{}
	if m.maxOutputTokens > 0 {
		generationConfig["maxOutputTokens"] = m.maxOutputTokens
	}
	if !math.IsNaN(m.temperature) {
		generationConfig["temperature"] = m.temperature
	}
	if !math.IsNaN(m.topP) {
		generationConfig["topP"] = m.topP
	}
	if m.topK > 0 {
		generationConfig["topK"] = m.topK
	}
	if len(generationConfig) > 0 {
		payload["generationConfig"] = generationConfig
	}

	if systemPrompt != nil {
		payload["systemInstruction"] = map[string]any{
			"parts": convertContent(systemPrompt),
		}
	}

	if toolbox != nil {
		allTools := toolbox.All()
		if len(allTools) > 0 {
			declarations := make([]*tools.FunctionSchema, len(allTools))
			for i, tool := range allTools {
				declarations[i] = tool.Schema()
			}
			payload["tools"] = map[string]any{
				"functionDeclarations": declarations,
			}
		}
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return &Stream{err: fmt.Errorf("error encoding JSON: %w", err)}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse", m.endpoint, m.model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return &Stream{err: fmt.Errorf("error creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return &Stream{err: fmt.Errorf("error making request: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		bodyBytes, readErr := io.ReadAll(resp.Body)
		if readErr == nil && len(bodyBytes) > 0 {
			var errResp errorResponse
			if jsonErr := json.Unmarshal(bodyBytes, &errResp); jsonErr == nil && errResp.Error.Message != "" {
				return &Stream{err: &llms.HTTPError{
					StatusCode: resp.StatusCode,
					Status:     resp.Status,
					Message:    errResp.Error.Message,
				}}
			}
		}
		return &Stream{err: &llms.HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}}
	}
	return &Stream{ctx: ctx, model: m.model, stream: resp.Body}
}

type Stream struct {
	ctx      context.Context
	model    string
	stream   io.ReadCloser
	err      error
	message  llms.Message
	lastText string
	usage    *usageMetadata
}

func (s *Stream) Err() error {
	return s.err
}

func (s *Stream) Message() llms.Message {
	return s.message
}

func (s *Stream) Text() string {
	return s.lastText
}

func (s *Stream) ToolCall() llms.ToolCall {
	if len(s.message.ToolCalls) == 0 {
		return llms.ToolCall{}
	}
	return s.message.ToolCalls[len(s.message.ToolCalls)-1]
}

func (s *Stream) Usage() (inputTokens, outputTokens int) {
	if s.usage == nil {
		return 0, 0
	}
	return s.usage.PromptTokenCount, s.usage.CandidatesTokenCount
}

func (s *Stream) Iter() func(yield func(llms.StreamStatus) bool) {
	scanner := bufio.NewScanner(s.stream)
	return func(yield func(llms.StreamStatus) bool) {
		defer s.stream.Close()
		for {
			select {
			case <-s.ctx.Done():
				s.err = s.ctx.Err()
				return
			default:
				// Context OK, keep scanning.
			}
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					s.err = fmt.Errorf("error scanning stream: %w", err)
				}
				return
			}

			line, ok := strings.CutPrefix(scanner.Text(), "data: ")
			if !ok {
				continue
			}
			var chunk streamingResponse
			if err := json.Unmarshal([]byte(line), &chunk); err != nil {
				s.err = fmt.Errorf("error unmarshalling chunk: %w", err)
				return
			}
			if chunk.UsageMetadata != nil {
				s.usage = chunk.UsageMetadata
			}
			if len(chunk.Candidates) < 1 {
				continue
			}
			delta := chunk.Candidates[0].Content
			if delta.Role != "" {
				s.message.Role = roleFromAPI(delta.Role)
			}
			for _, p := range delta.Parts {
				if p.Text != nil {
					s.lastText = *p.Text
					if s.lastText != "" {
						s.message.Content.Append(s.lastText)
						if !yield(llms.StreamStatusText) {
							return
						}
					}
				}
				if p.FunctionCall != nil {
					// Gemini's streaming API doesn't have partial tool calls,
					// and it doesn't provide call IDs either, so we mint one.
					s.message.ToolCalls = append(s.message.ToolCalls, llms.ToolCall{
						ID:        uuid.NewString(),
						Name:      p.FunctionCall.Name,
						Arguments: p.FunctionCall.Args,
					})
					if !yield(llms.StreamStatusToolCallBegin) {
						return
					}
					if !yield(llms.StreamStatusToolCallDelta) {
						return
					}
					if !yield(llms.StreamStatusToolCallReady) {
						return
					}
				}
			}
		}
	}
}

func roleFromAPI(role string) string {
	if role == "model" {
		return "assistant"
	}
	return role
}
