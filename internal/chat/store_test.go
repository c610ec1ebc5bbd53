package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreStartsEmpty(t *testing.T) {
	store := NewStore()
	conversation := store.Current()
	assert.NotEmpty(t, conversation.ID)
	assert.Empty(t, conversation.Turns)
}

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	store := NewStore()

	turn := store.Append(Turn{Role: RoleUser, Text: "hello"})
	assert.NotEmpty(t, turn.ID)
	assert.False(t, turn.Timestamp.IsZero())

	conversation := store.Current()
	require.Len(t, conversation.Turns, 1)
	assert.Equal(t, turn.ID, conversation.Turns[0].ID)
	assert.Equal(t, "hello", conversation.Turns[0].Text)
}

func TestResetStartsFreshConversation(t *testing.T) {
	store := NewStore()
	store.Append(Turn{Role: RoleUser, Text: "hello"})
	oldID := store.Current().ID

	conversation := store.Reset("demo")
	assert.NotEqual(t, oldID, conversation.ID)
	assert.Empty(t, conversation.Turns)
	assert.Equal(t, "demo", conversation.Server)
	assert.Equal(t, "demo", store.Server())
}

func TestCurrentReturnsSnapshot(t *testing.T) {
	store := NewStore()
	store.Append(Turn{Role: RoleUser, Text: "original"})

	snapshot := store.Current()
	snapshot.Turns[0].Text = "mutated"

	assert.Equal(t, "original", store.Current().Turns[0].Text)
}

func TestToolTurnFields(t *testing.T) {
	store := NewStore()
	turn := store.Append(Turn{
		Role:     RoleTool,
		ToolName: "greet",
		ToolArgs: `{"name":"Ada"}`,
		Result:   "Hello, Ada!",
	})
	assert.Equal(t, RoleTool, turn.Role)
	assert.Equal(t, "greet", turn.ToolName)
	assert.False(t, turn.IsError)
}
