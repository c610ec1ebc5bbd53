package llms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"sigs.k8s.io/yaml"

	"github.com/mcpchat/mcpchat/content"
	"github.com/mcpchat/mcpchat/tools"
)

var ErrMaxTurnsReached = errors.New("max turns reached")

// LLM represents the interface to an LLM provider, maintaining state between
// individual calls, for example when tool calling is being performed. Note that
// this is NOT thread safe for this reason.
type LLM struct {
	provider Provider
	toolbox  *tools.Toolbox

	turns, maxTurns  int
	lastSentMessages []Message

	debug bool
	err   error // Last error encountered during operation

	// SystemPrompt should return the system prompt for the LLM. It's a function
	// to allow the system prompt to dynamically change throughout a single
	// conversation.
	SystemPrompt func() content.Content
}

// New creates a new LLM instance with the specified provider and optional
// tools. The provider handles communication with the actual LLM service. If
// tools are provided, they will be available for the LLM to use during
// conversations.
func New(provider Provider, allTools ...tools.Tool) *LLM {
	var toolbox *tools.Toolbox
	if len(allTools) > 0 {
		toolbox = tools.Box(allTools...)
	}
	return &LLM{
		provider: provider,
		toolbox:  toolbox,
	}
}

// Chat sends a text message to the LLM and immediately returns a channel over
// which updates will come in. The LLM will use the tools available and keep
// generating more messages until it's done using tools.
func (l *LLM) Chat(message string) <-chan Update {
	return l.ChatWithContext(context.Background(), message)
}

// ChatWithContext sends a text message to the LLM and immediately returns a
// channel over which updates will come in. The LLM will use the tools available
// and keep generating more messages until it's done using tools. The provided
// context can be used to pass values to tools, set deadlines, cancel, etc.
func (l *LLM) ChatWithContext(ctx context.Context, message string) <-chan Update {
	return l.ChatUsingContent(ctx, content.FromText(message))
}

// ChatUsingContent sends a message (which can contain images) to the LLM and
// immediately returns a channel over which updates will come in.
func (l *LLM) ChatUsingContent(ctx context.Context, message content.Content) <-chan Update {
	return l.ChatUsingMessages(ctx, append(l.lastSentMessages, Message{
		Role:    "user",
		Content: message,
	}))
}

// ChatUsingMessages sends a message history to the LLM and immediately returns
// a channel over which updates will come in. The LLM will use the tools
// available and keep generating more messages until it's done using tools.
func (l *LLM) ChatUsingMessages(ctx context.Context, messages []Message) <-chan Update {
	l.lastSentMessages = messages
	// Reset error state for new chat
	l.err = nil

	updateChan := make(chan Update)

	// Check if context is already cancelled before starting goroutine
	if err := ctx.Err(); err != nil {
		l.err = err
		close(updateChan)
		return updateChan
	}

	// Launch a goroutine to manage the chat turns and stream processing.
	// This goroutine owns the updateChan and ensures it's closed on exit.
	go func() {
		defer close(updateChan)
		for {
			select {
			case <-ctx.Done():
				l.err = ctx.Err()
				if l.err == nil {
					l.err = context.Canceled
				}
				return
			default:
				shouldContinue, err := l.turn(ctx, updateChan)
				if err != nil {
					l.err = err
					return
				}
				if !shouldContinue {
					// Normal completion (e.g., no tool calls), exit goroutine.
					return
				}
			}
		}
	}()

	return updateChan
}

// AddTool adds a new tool to the LLM's toolbox. If the toolbox doesn't exist
// yet, it will be created. Tools allow the LLM to perform actions beyond just
// generating text, which in this application means forwarding calls to the
// connected MCP server.
func (l *LLM) AddTool(t tools.Tool) {
	if t == nil {
		panic("attempted to add a nil tool to the LLM toolbox")
	}
	if l.toolbox == nil {
		l.toolbox = tools.Box(t)
	} else {
		l.toolbox.Add(t)
	}
}

// Messages returns the full message history as of the last completed turn.
func (l *LLM) Messages() []Message {
	return l.lastSentMessages
}

func (l *LLM) String() string {
	return fmt.Sprintf("%s (%s)", l.provider.Model(), l.provider.Company())
}

// WithDebug enables debug mode. When debug mode is enabled, the LLM will write
// detailed information about each interaction to a debug.yaml file, including
// the message history, tool calls, and other relevant data.
func (l *LLM) WithDebug() *LLM {
	l.debug = true
	return l
}

// WithMaxTurns sets the maximum number of turns the LLM will make. This is
// useful to prevent infinite loops or excessive usage. A value of 0 means no
// limit. A value of 1 means the LLM will only ever do one API call, and so on.
func (l *LLM) WithMaxTurns(maxTurns int) *LLM {
	l.maxTurns = maxTurns
	return l
}

// Err returns the last error encountered during LLM operation. This is useful
// for checking errors after a Chat loop completes. Returns nil if no error
// occurred.
func (l *LLM) Err() error {
	return l.err
}

func (l *LLM) turn(ctx context.Context, updateChan chan<- Update) (bool, error) {
	if l.maxTurns > 0 && l.turns >= l.maxTurns {
		return false, ErrMaxTurnsReached
	}
	l.turns++

	var systemPrompt content.Content
	if l.SystemPrompt != nil {
		systemPrompt = l.SystemPrompt()
	}

	// This will hold results from tool calls, to be sent back to the LLM.
	var toolMessages []Message

	stream := l.provider.Generate(ctx, systemPrompt, l.lastSentMessages, l.toolbox)
	if err := stream.Err(); err != nil {
		return false, fmt.Errorf("LLM returned error response: %w", err)
	}

	if l.debug {
		// Write the entire message history to the file debug.yaml. The function
		// is deferred so that we get data even if a panic occurs.
		defer func() {
			var toolsSchema []*tools.FunctionSchema
			if l.toolbox != nil {
				for _, tool := range l.toolbox.All() {
					toolsSchema = append(toolsSchema, tool.Schema())
				}
			}
			debugData := map[string]any{
				// Prefixed with numbers so the keys remain in this order.
				"1_receivedMessage": stream.Message(),
				"2_toolResults":     toolMessages,
				"3_sentMessages":    l.lastSentMessages,
				"4_systemPrompt":    systemPrompt,
				"5_availableTools":  toolsSchema,
			}
			if debugYAML, err := yaml.Marshal(debugData); err == nil {
				os.WriteFile("debug.yaml", debugYAML, 0644)
			}
		}()
	}

	// Tracks how many bytes of the tool call arguments we sent so far in deltas.
	var toolCallDeltaSentBytes int

	for status := range stream.Iter() {
		// Check context at the beginning of each iteration. This ensures we
		// react promptly if cancellation happens between stream events.
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}
		switch status {
		case StreamStatusText:
			updateChan <- TextUpdate{stream.Text()}

		case StreamStatusToolCallBegin:
			toolCall := stream.ToolCall()
			if toolCall.ID == "" {
				return false, fmt.Errorf("missing tool call ID for tool %q", toolCall.Name)
			}
			tool := l.toolbox.Get(toolCall.Name)
			if tool == nil {
				return false, fmt.Errorf("tool %q not found", toolCall.Name)
			}
			toolCallDeltaSentBytes = 0
			updateChan <- ToolStartUpdate{toolCall.ID, tool}

		case StreamStatusToolCallDelta:
			toolCall := stream.ToolCall()
			if argLen := len(toolCall.Arguments); argLen > toolCallDeltaSentBytes {
				// Only send the new part of the arguments.
				updateChan <- ToolDeltaUpdate{toolCall.ID, toolCall.Arguments[toolCallDeltaSentBytes:]}
				toolCallDeltaSentBytes = argLen
			}

		case StreamStatusToolCallReady:
			toolCall := stream.ToolCall()
			// Usually there shouldn't be any more changes to arguments but we
			// have to make sure all arguments are sent before we run the tool.
			if argLen := len(toolCall.Arguments); argLen > toolCallDeltaSentBytes {
				updateChan <- ToolDeltaUpdate{toolCall.ID, toolCall.Arguments[toolCallDeltaSentBytes:]}
				toolCallDeltaSentBytes = argLen
			}
			toolMessage := l.runToolCall(ctx, l.toolbox, toolCall, updateChan)
			toolMessages = append(toolMessages, toolMessage)
		}
	}
	// Check stream error after iterating
	if streamErr := stream.Err(); streamErr != nil {
		return false, fmt.Errorf("error iterating stream: %w", streamErr)
	}
	// Also check if the context was cancelled during stream iteration,
	// even if the iterator itself didn't return an error.
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	// Add the fully assembled message plus tool call results to the message history.
	l.lastSentMessages = append(l.lastSentMessages, stream.Message())
	// Role "tool" must always come first.
	slices.SortStableFunc(toolMessages, func(a, b Message) int {
		if a.Role == "tool" && b.Role != "tool" {
			return -1
		}
		if a.Role != "tool" && b.Role == "tool" {
			return 1
		}
		return 0
	})
	l.lastSentMessages = append(l.lastSentMessages, toolMessages...)

	// Return true if there were tool calls, since the LLM should look at the results.
	return len(toolMessages) > 0, nil
}

func (l *LLM) runToolCall(ctx context.Context, toolbox *tools.Toolbox, toolCall ToolCall, updateChan chan<- Update) Message {
	if toolCall.ID == "" {
		panic(fmt.Sprintf("tool call (%s) is missing an ID", toolCall.Name))
	}

	// As a sanity check, make sure we don't try to run the same tool call twice.
	for _, message := range l.lastSentMessages {
		if message.ToolCallID == toolCall.ID {
			panic(fmt.Sprintf("tool call %q (%s) has already been run", toolCall.ID, toolCall.Name))
		}
	}

	t := toolbox.Get(toolCall.Name)
	// Create a new context with the ToolCall value
	ctxWithValue := context.WithValue(ctx, ToolCallContextKey, toolCall)
	runner := tools.NewRunner(ctxWithValue, toolbox, func(status string) {
		select {
		case <-ctx.Done(): // Don't send if already cancelled
		default:
			updateChan <- ToolStatusUpdate{toolCall.ID, status, t}
		}
	})

	result := toolbox.Run(runner, toolCall.Name, json.RawMessage(toolCall.Arguments))
	select {
	case <-ctx.Done(): // Don't send if already cancelled
	default:
		updateChan <- ToolDoneUpdate{toolCall.ID, result, t}
	}

	return Message{
		Role:         "tool",
		Content:      result.Content(),
		ToolCallID:   toolCall.ID,
		ToolCallName: toolCall.Name,
	}
}
