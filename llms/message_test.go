package llms

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpchat/mcpchat/content"
)

func TestMessageUnmarshalStringContent(t *testing.T) {
	var m Message
	err := json.Unmarshal([]byte(`{"role":"user","content":"plain string"}`), &m)
	require.NoError(t, err)
	assert.Equal(t, "user", m.Role)
	assert.Equal(t, "plain string", m.Content.Text())
}

func TestMessageUnmarshalArrayContent(t *testing.T) {
	var m Message
	err := json.Unmarshal([]byte(`{"role":"assistant","content":[{"type":"text","text":"hi"}]}`), &m)
	require.NoError(t, err)
	assert.Equal(t, "hi", m.Content.Text())
}

func TestMessageUnmarshalNullContent(t *testing.T) {
	var m Message
	err := json.Unmarshal([]byte(`{"role":"assistant","content":null}`), &m)
	require.NoError(t, err)
	assert.Nil(t, m.Content)
}

func TestMessageRoundTripToolFields(t *testing.T) {
	original := Message{
		Role:         "tool",
		Content:      content.FromRawJSON(json.RawMessage(`{"result":"ok"}`)),
		ToolCallID:   "call-1",
		ToolCallName: "greet",
	}
	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "tool", decoded.Role)
	assert.Equal(t, "call-1", decoded.ToolCallID)
	assert.Equal(t, "greet", decoded.ToolCallName)
}

func TestMessageUnmarshalInvalidContent(t *testing.T) {
	var m Message
	err := json.Unmarshal([]byte(`{"role":"user","content":12345}`), &m)
	require.Error(t, err)
}
