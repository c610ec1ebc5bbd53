package llms

import (
	"encoding/json"
	"fmt"

	"github.com/mcpchat/mcpchat/content"
)

type Message struct {
	// Role can be "system", "user", "assistant", or "tool".
	Role string `json:"role"`
	// ID is an optional identifier for the message.
	ID string `json:"id,omitempty"`
	// Content is the message content.
	Content content.Content `json:"content"`
	// ToolCalls represents the list of tools that an assistant message is invoking.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID identifies which tool call a message is responding to. It is
	// set on "tool" role messages and matches the ID of the originating call.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// ToolCallName is the function name corresponding to the ToolCallID.
	// Gemini requires function responses to reference the function name.
	ToolCallName string `json:"tool_call_name,omitempty"`
}

// UnmarshalJSON implements the json.Unmarshaler interface for Message. It
// handles the case where the 'content' field might be a simple string instead
// of the expected array of content items.
func (m *Message) UnmarshalJSON(data []byte) error {
	// Use an alias type to avoid infinite recursion when calling json.Unmarshal
	type MessageAlias Message
	var aux struct {
		MessageAlias
		Content json.RawMessage `json:"content"`
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*m = Message(aux.MessageAlias)

	if string(aux.Content) == "null" {
		m.Content = nil
		return nil
	}

	var contentStr string
	if err := json.Unmarshal(aux.Content, &contentStr); err == nil {
		m.Content = content.FromText(contentStr)
		return nil
	}

	if err := json.Unmarshal(aux.Content, &m.Content); err != nil {
		return fmt.Errorf("failed to unmarshal content field as array: %w", err)
	}

	return nil
}
