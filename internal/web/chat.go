package web

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcpchat/mcpchat/content"
	"github.com/mcpchat/mcpchat/internal/chat"
	"github.com/mcpchat/mcpchat/llms"
)

// writeTimeout bounds each websocket write so a stalled browser cannot hold
// an exchange open indefinitely.
const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The dev server binds to localhost and has no cross-origin surface.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is one user message sent over the websocket. Image is an
// optional base64-encoded attachment.
type chatRequest struct {
	Message string `json:"message"`
	Image   string `json:"image,omitempty"`
}

// chatEvent is one streamed update sent back to the browser while the model
// generates a response.
type chatEvent struct {
	Type    string     `json:"type"`
	Turn    *chat.Turn `json:"turn,omitempty"`
	Text    string     `json:"text,omitempty"`
	HTML    string     `json:"html,omitempty"`
	ID      string     `json:"id,omitempty"`
	Name    string     `json:"name,omitempty"`
	Label   string     `json:"label,omitempty"`
	IsError bool       `json:"is_error,omitempty"`
	Message string     `json:"message,omitempty"`
}

func writeEvent(conn *websocket.Conn, event chatEvent) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(event)
}

// handleChat upgrades to a websocket and relays chat exchanges: each received
// message triggers one engine run, and every engine update is forwarded as a
// JSON event. The connection survives across exchanges.
func (s *WebServer) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		if strings.TrimSpace(req.Message) == "" && req.Image == "" {
			continue
		}
		if err := s.runExchange(r.Context(), conn, req); err != nil {
			s.logger.Warn("websocket write failed", "error", err)
			return
		}
	}
}

// runExchange performs one chat exchange: append the user turn, run the
// engine until the model stops calling tools, and stream every update to the
// browser. Errors from the model or tools become error events; only websocket
// write failures are returned.
func (s *WebServer) runExchange(ctx context.Context, conn *websocket.Conn, req chatRequest) error {
	s.mu.Lock()
	if s.chatting || s.engine == nil {
		s.mu.Unlock()
		return writeEvent(conn, chatEvent{Type: "error", Message: "chat engine is busy"})
	}
	s.chatting = true
	engine := s.engine
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.chatting = false
		s.mu.Unlock()
	}()

	userContent := content.FromText(req.Message)
	if req.Image != "" {
		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			return writeEvent(conn, chatEvent{Type: "error", Message: "invalid image attachment"})
		}
		dataURI, err := content.ImageToDataURI(data)
		if err != nil {
			return writeEvent(conn, chatEvent{Type: "error", Message: "unable to process image: " + err.Error()})
		}
		userContent.AddImage(dataURI)
	}

	userTurn := s.store.Append(chat.Turn{Role: chat.RoleUser, Text: req.Message})
	if err := writeEvent(conn, chatEvent{Type: "user", Turn: &userTurn}); err != nil {
		return err
	}

	chatCtx, cancel := context.WithTimeout(ctx, s.config.ChatTimeout)
	defer cancel()

	var assistantText strings.Builder
	toolArgs := make(map[string]*strings.Builder)
	toolNames := make(map[string]string)

	updates := engine.ChatUsingContent(chatCtx, userContent)
	// On an early return (a dropped websocket mid-stream) the engine goroutine
	// would block forever on its unbuffered update channel, still holding the
	// message history the next exchange reuses. Cancel and drain so it always
	// runs to completion before the busy flag clears.
	defer func() {
		cancel()
		for range updates {
		}
	}()

	for update := range updates {
		switch update := update.(type) {
		case llms.TextUpdate:
			assistantText.WriteString(update.Text)
			if err := writeEvent(conn, chatEvent{Type: "text", Text: update.Text}); err != nil {
				return err
			}

		case llms.ToolStartUpdate:
			toolArgs[update.ToolCallID] = &strings.Builder{}
			toolNames[update.ToolCallID] = update.Tool.FuncName()
			event := chatEvent{
				Type:  "tool_start",
				ID:    update.ToolCallID,
				Name:  update.Tool.FuncName(),
				Label: update.Tool.Label(),
			}
			if err := writeEvent(conn, event); err != nil {
				return err
			}

		case llms.ToolDeltaUpdate:
			if b, ok := toolArgs[update.ToolCallID]; ok {
				b.Write(update.Delta)
			}

		case llms.ToolStatusUpdate:
			event := chatEvent{
				Type:  "tool_status",
				ID:    update.ToolCallID,
				Label: update.Status,
			}
			if err := writeEvent(conn, event); err != nil {
				return err
			}

		case llms.ToolDoneUpdate:
			args := ""
			if b, ok := toolArgs[update.ToolCallID]; ok {
				args = b.String()
			}
			turn := s.store.Append(chat.Turn{
				Role:     chat.RoleTool,
				ToolName: toolNames[update.ToolCallID],
				ToolArgs: args,
				Result:   update.Result.Label(),
				IsError:  update.Result.Error() != nil,
			})
			event := chatEvent{
				Type:    "tool_done",
				ID:      update.ToolCallID,
				Turn:    &turn,
				Label:   update.Result.Label(),
				IsError: update.Result.Error() != nil,
			}
			if err := writeEvent(conn, event); err != nil {
				return err
			}
		}
	}

	if err := engine.Err(); err != nil {
		s.logger.Error("chat exchange failed", "error", err)
		return writeEvent(conn, chatEvent{Type: "error", Message: err.Error()})
	}

	text := assistantText.String()
	if strings.TrimSpace(text) == "" {
		if err := writeEvent(conn, chatEvent{Type: "warning", Message: "Received empty response."}); err != nil {
			return err
		}
		return writeEvent(conn, chatEvent{Type: "done"})
	}

	turn := s.store.Append(chat.Turn{Role: chat.RoleAssistant, Text: text})
	event := chatEvent{
		Type: "assistant",
		Turn: &turn,
		HTML: string(RenderMarkdown(text)),
	}
	if err := writeEvent(conn, event); err != nil {
		return err
	}
	return writeEvent(conn, chatEvent{Type: "done"})
}
