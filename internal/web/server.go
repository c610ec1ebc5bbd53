// Package web serves the single-page chat UI: server selection, capability
// inspection, and the websocket that streams chat turns to the browser.
package web

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mcpchat/mcpchat/internal/chat"
	"github.com/mcpchat/mcpchat/llms"
	"github.com/mcpchat/mcpchat/mcp"
	"github.com/mcpchat/mcpchat/tools"
)

// noServer is the dropdown entry that runs the chat without any MCP tools.
const noServer = "None"

// defaultChatTimeout bounds one full chat exchange, including any tool
// round-trips the model decides to make.
const defaultChatTimeout = 2 * time.Minute

// Config carries the collaborators for a WebServer.
type Config struct {
	// MCPConfig is the parsed mcp.json.
	MCPConfig *mcp.Config

	// NewEngine builds a fresh chat engine with the given tools. A new engine
	// is created whenever the transcript resets, since the engine owns the
	// model-side message history.
	NewEngine func(toolsList []tools.Tool) *llms.LLM

	// ChatTimeout bounds a full chat exchange. Zero means defaultChatTimeout.
	ChatTimeout time.Duration

	Logger *slog.Logger
}

// WebServer owns the UI state: the selected server session, the transcript,
// and the chat engine for the current conversation.
type WebServer struct {
	config    Config
	logger    *slog.Logger
	store     *chat.Store
	templates map[string]*template.Template

	mu       sync.Mutex
	selected string
	session  *mcp.Session
	engine   *llms.LLM
	chatting bool
}

// NewWebServer creates a WebServer. The engine starts with no server selected
// and an empty transcript.
func NewWebServer(config Config) *WebServer {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.ChatTimeout == 0 {
		config.ChatTimeout = defaultChatTimeout
	}

	s := &WebServer{
		config:    config,
		logger:    logger,
		store:     chat.NewStore(),
		templates: loadTemplates(),
		selected:  noServer,
	}
	if config.NewEngine != nil {
		s.engine = config.NewEngine(nil)
	}
	return s
}

// RegisterRoutes adds all UI and API routes to the mux.
func (s *WebServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /static/", http.StripPrefix("/static/", staticHandler()))

	mux.HandleFunc("GET /api/servers", s.handleServers)
	mux.HandleFunc("POST /api/select", s.handleSelect)
	mux.HandleFunc("POST /api/chat/new", s.handleNewChat)
	mux.HandleFunc("GET /api/conversation", s.handleConversation)
	mux.HandleFunc("GET /ws", s.handleChat)
}

// Handler returns the full UI handler.
func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return mux
}

// selectServer switches the active session to the named server. The old
// session is torn down first; selecting the current server reconnects it.
// The transcript and engine are reset because tool availability changed.
func (s *WebServer) selectServer(ctx context.Context, name string) (*mcp.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chatting {
		return nil, fmt.Errorf("a chat exchange is in progress")
	}

	if s.session != nil {
		if err := s.session.Close(); err != nil {
			s.logger.Warn("failed to close previous session", "server", s.selected, "error", err)
		}
		s.session = nil
	}

	s.selected = name
	s.resetConversationLocked()

	if name == noServer {
		return nil, nil
	}

	serverConfig, ok := s.config.MCPConfig.Server(name)
	if !ok {
		return nil, fmt.Errorf("unknown server %q", name)
	}

	session, err := mcp.Connect(ctx, name, serverConfig)
	if err != nil {
		s.selected = noServer
		s.resetConversationLocked()
		return nil, err
	}

	s.session = session
	s.resetConversationLocked()
	for _, warning := range session.Warnings {
		s.logger.Warn("server inspection warning", "server", name, "warning", warning)
	}
	s.logger.Info("connected to MCP server",
		"server", name,
		"server_name", session.Server.Name,
		"server_version", session.Server.Version,
		"prompts", len(session.Prompts),
		"resources", len(session.Resources),
		"tools", len(session.Tools))
	return session, nil
}

// resetConversationLocked starts a new conversation and a fresh engine wired
// to the current session's tools. Callers must hold s.mu.
func (s *WebServer) resetConversationLocked() {
	s.store.Reset(s.selected)
	if s.config.NewEngine == nil {
		return
	}
	var toolsList []tools.Tool
	if s.session != nil {
		toolsList = s.session.EngineTools()
	}
	s.engine = s.config.NewEngine(toolsList)
}

// Close tears down the active session, if any.
func (s *WebServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Close()
	s.session = nil
	return err
}
