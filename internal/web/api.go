package web

import (
	"encoding/json"
	"net/http"

	"github.com/mcpchat/mcpchat/internal/chat"
	"github.com/mcpchat/mcpchat/mcp"
)

// IndexData is the template context for the chat page.
type IndexData struct {
	Servers  []string
	Selected string
}

// handleIndex renders the single chat page. All live state (transcript,
// inspection panel) is fetched by the page's script over the JSON API.
func (s *WebServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	selected := s.selected
	s.mu.Unlock()

	s.render(w, "chat.html", IndexData{
		Servers:  append([]string{noServer}, s.config.MCPConfig.ServerNames()...),
		Selected: selected,
	})
}

// serversResponse lists the configured servers and the active selection.
type serversResponse struct {
	Servers  []string `json:"servers"`
	Selected string   `json:"selected"`
}

func (s *WebServer) handleServers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	selected := s.selected
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, serversResponse{
		Servers:  append([]string{noServer}, s.config.MCPConfig.ServerNames()...),
		Selected: selected,
	})
}

// selectRequest asks to switch the active MCP server.
type selectRequest struct {
	Server string `json:"server"`
}

// inspectionResponse is the sidebar payload after a server is selected: the
// server's identity, its declared capabilities, any per-section warnings, and
// the raw config entry for the configuration viewer.
type inspectionResponse struct {
	Selected  string            `json:"selected"`
	Server    *mcp.ServerInfo   `json:"server,omitempty"`
	Prompts   []mcp.Prompt      `json:"prompts"`
	Resources []mcp.Resource    `json:"resources"`
	Tools     []mcp.Tool        `json:"tools"`
	Warnings  []string          `json:"warnings,omitempty"`
	Config    *mcp.ServerConfig `json:"config,omitempty"`
}

func (s *WebServer) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Server != noServer {
		if _, ok := s.config.MCPConfig.Server(req.Server); !ok {
			writeError(w, http.StatusNotFound, "unknown server: "+req.Server)
			return
		}
	}

	session, err := s.selectServer(r.Context(), req.Server)
	if err != nil {
		s.logger.Error("failed to connect to MCP server", "server", req.Server, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := inspectionResponse{
		Selected:  req.Server,
		Prompts:   []mcp.Prompt{},
		Resources: []mcp.Resource{},
		Tools:     []mcp.Tool{},
	}
	if session != nil {
		info := session.Server
		resp.Server = &info
		resp.Prompts = append(resp.Prompts, session.Prompts...)
		resp.Resources = append(resp.Resources, session.Resources...)
		resp.Tools = append(resp.Tools, session.Tools...)
		resp.Warnings = session.Warnings
	}
	if config, ok := s.config.MCPConfig.Server(req.Server); ok {
		resp.Config = &config
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *WebServer) handleNewChat(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chatting {
		writeError(w, http.StatusConflict, "a chat exchange is in progress")
		return
	}
	s.resetConversationLocked()
	writeJSON(w, http.StatusOK, s.store.Current())
}

func (s *WebServer) handleConversation(w http.ResponseWriter, r *http.Request) {
	conversation := s.store.Current()
	if conversation.Turns == nil {
		conversation.Turns = []chat.Turn{}
	}
	writeJSON(w, http.StatusOK, conversation)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
