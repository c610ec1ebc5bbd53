// Package chat holds the in-memory conversation transcript. Transcripts are
// append-only within a conversation and cleared by starting a new chat or
// switching servers; nothing is persisted across process restarts.
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Turn is one entry in the transcript: a user message, a model message, or a
// tool invocation with its result label.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text,omitempty"`
	ToolName  string    `json:"tool_name,omitempty"`
	ToolArgs  string    `json:"tool_args,omitempty"`
	Result    string    `json:"result,omitempty"`
	IsError   bool      `json:"is_error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is an ordered transcript bound to the server that was selected
// when it started.
type Conversation struct {
	ID     string `json:"id"`
	Server string `json:"server"`
	Turns  []Turn `json:"turns"`
}

// Store holds the active conversation. The web UI is a single-user dev tool,
// so there is exactly one current conversation at a time.
type Store struct {
	mu      sync.Mutex
	current Conversation
}

// NewStore returns a store with an empty conversation bound to no server.
func NewStore() *Store {
	s := &Store{}
	s.Reset("None")
	return s
}

// Reset discards the transcript and starts a new conversation bound to the
// given server selection.
func (s *Store) Reset(server string) Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = Conversation{
		ID:     uuid.NewString(),
		Server: server,
	}
	return s.current
}

// Append adds a turn to the current conversation, assigning it an ID and
// timestamp, and returns the stored turn.
func (s *Store) Append(turn Turn) Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turn.ID = uuid.NewString()
	turn.Timestamp = time.Now()
	s.current.Turns = append(s.current.Turns, turn)
	return turn
}

// Current returns a snapshot of the active conversation.
func (s *Store) Current() Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.current
	snapshot.Turns = make([]Turn, len(s.current.Turns))
	copy(snapshot.Turns, s.current.Turns)
	return snapshot
}

// Server returns the server the current conversation is bound to.
func (s *Store) Server() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Server
}
