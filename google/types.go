package google

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcpchat/mcpchat/content"
	"github.com/mcpchat/mcpchat/llms"
)

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type fileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri"`
}

type functionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type functionResponse struct {
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response"`
}

type part struct {
	Text             *string           `json:"text,omitempty"`
	InlineData       *inlineData       `json:"inlineData,omitempty"`
	FileData         *fileData         `json:"fileData,omitempty"`
	FunctionCall     *functionCall     `json:"functionCall,omitempty"`
	FunctionResponse *functionResponse `json:"functionResponse,omitempty"`
}

type parts []part

func convertContent(c content.Content) (p parts) {
	for _, item := range c {
		var pp part
		switch v := item.(type) {
		case *content.Text:
			text := v.Text
			pp.Text = &text
		case *content.ImageURL:
			if dataValue, found := strings.CutPrefix(v.URL, "data:"); found {
				mimeType, data, found := strings.Cut(dataValue, ";base64,")
				if !found {
					panic(fmt.Sprintf("unsupported data URI format %q", v.URL))
				}
				pp.InlineData = &inlineData{mimeType, data}
			} else {
				pp.FileData = &fileData{FileURI: v.URL}
			}
		case *content.JSON:
			text := string(v.Data)
			pp.Text = &text
		default:
			panic(fmt.Sprintf("unhandled content item type %T", item))
		}
		p = append(p, pp)
	}
	return p
}

func (p parts) MarshalJSON() ([]byte, error) {
	// If there's just one part, don't wrap it in an array.
	if len(p) == 1 {
		return json.Marshal(p[0])
	}
	return json.Marshal([]part(p))
}

func (p *parts) UnmarshalJSON(data []byte) error {
	// Try to unmarshal data as a single part first.
	var pp part
	if err := json.Unmarshal(data, &pp); err == nil {
		*p = parts{pp}
		return nil
	}
	var value []part
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*p = parts(value)
	return nil
}

type message struct {
	Role  string `json:"role"`
	Parts parts  `json:"parts"`
}

// messagesFromLLM converts an llms.Message to the Gemini API message format.
// A tool result with auxiliary content maps to more than one API message.
func messagesFromLLM(m llms.Message) []message {
	if m.Role == "tool" {
		var messagesToReturn []message
		var primaryResultJSON json.RawMessage
		var secondaryContent content.Content

		// Extract primary result (must be JSON) and potential secondary content.
		if len(m.Content) > 0 {
			if jsonItem, ok := m.Content[0].(*content.JSON); ok {
				primaryResultJSON = jsonItem.Data
				if len(m.Content) > 1 {
					secondaryContent = m.Content[1:]
				}
			} else {
				errorData, _ := json.Marshal(map[string]string{"error": "Primary tool result must be JSON for Gemini"})
				primaryResultJSON = errorData
				secondaryContent = m.Content
			}
		} else {
			// Empty result content still needs a JSON object.
			primaryResultJSON = json.RawMessage("{}")
		}

		// Gemini wants functionResponse.name to be the function name, with the
		// actual result wrapped in a content envelope.
		responseWrapperJSON, err := json.Marshal(map[string]any{
			"name":    m.ToolCallName,
			"content": primaryResultJSON,
		})
		if err != nil {
			panic(fmt.Sprintf("failed to marshal function response wrapper: %v", err))
		}

		messagesToReturn = append(messagesToReturn, message{
			Role: "function",
			Parts: parts{
				{
					FunctionResponse: &functionResponse{
						Name:     m.ToolCallName,
						Response: responseWrapperJSON,
					},
				},
			},
		})

		// Any additional content items ride along as a synthetic user message.
		if len(secondaryContent) > 0 {
			secondaryParts := convertContent(secondaryContent)
			if len(secondaryParts) > 0 {
				messagesToReturn = append(messagesToReturn, message{
					Role:  "user",
					Parts: secondaryParts,
				})
			}
		}
		return messagesToReturn
	}

	// Handle regular messages (user, model/assistant)
	apiRole := m.Role
	if apiRole == "assistant" {
		apiRole = "model" // Gemini uses "model" for the assistant role
	}

	apiParts := convertContent(m.Content)

	if m.Role == "assistant" {
		for _, toolCall := range m.ToolCalls {
			args := json.RawMessage("{}")
			if toolCall.Arguments != nil {
				args = toolCall.Arguments
			}
			apiParts = append(apiParts, part{
				FunctionCall: &functionCall{
					Name: toolCall.Name,
					Args: args,
				},
			})
		}
	}

	if len(apiParts) == 0 {
		return []message{}
	}

	return []message{{
		Role:  apiRole,
		Parts: apiParts,
	}}
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type streamingResponse struct {
	Candidates    []candidate    `json:"candidates"`
	UsageMetadata *usageMetadata `json:"usageMetadata,omitempty"`
}

type candidate struct {
	Content      candidateContent `json:"content"`
	FinishReason string           `json:"finishReason,omitempty"`
}

type candidateContent struct {
	Role  string `json:"role"`
	Parts parts  `json:"parts"`
}
