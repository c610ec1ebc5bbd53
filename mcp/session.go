package mcp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcpchat/mcpchat/tools"
)

const (
	// initializeTimeout bounds the MCP handshake when connecting.
	initializeTimeout = 10 * time.Second
	// inspectTimeout bounds each capability list request.
	inspectTimeout = 5 * time.Second
)

// Session is the live connection to one selected MCP server together with its
// discovered capability lists. It is created when the user selects a server
// and torn down when a different server is selected or the process exits.
type Session struct {
	Name   string
	Server ServerInfo

	Prompts   []Prompt
	Resources []Resource
	Tools     []Tool

	// Warnings holds per-section inspection failures. A server that cannot
	// list prompts is still usable for tools, so these don't fail Connect.
	Warnings []string

	client *Client
}

// Connect launches/attaches to the named server and discovers what it offers.
// The handshake is bounded by its own timeout; each capability list is
// best-effort and records a warning instead of failing the session.
func Connect(ctx context.Context, name string, config ServerConfig) (*Session, error) {
	transportConfig, err := config.TransportConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid config for server %s: %w", name, err)
	}

	initCtx, cancel := context.WithTimeout(ctx, initializeTimeout)
	defer cancel()

	client, err := ConnectClient(initCtx, transportConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server %s: %w", name, err)
	}

	s := &Session{
		Name:   name,
		Server: client.ServerInfo(),
		client: client,
	}
	s.inspect(ctx)
	return s, nil
}

// inspect queries the server's declared prompts, resources, and tools. Each
// list gets its own timeout and a failure becomes a section warning.
func (s *Session) inspect(ctx context.Context) {
	listCtx, cancel := context.WithTimeout(ctx, inspectTimeout)
	if prompts, err := s.client.ListPrompts(listCtx); err != nil {
		s.Warnings = append(s.Warnings, fmt.Sprintf("unable to fetch prompt list: %v", err))
	} else {
		s.Prompts = prompts
	}
	cancel()

	listCtx, cancel = context.WithTimeout(ctx, inspectTimeout)
	if resources, err := s.client.ListResources(listCtx); err != nil {
		s.Warnings = append(s.Warnings, fmt.Sprintf("unable to fetch resource list: %v", err))
	} else {
		s.Resources = resources
	}
	cancel()

	listCtx, cancel = context.WithTimeout(ctx, inspectTimeout)
	if tools, err := s.client.ListTools(listCtx); err != nil {
		s.Warnings = append(s.Warnings, fmt.Sprintf("unable to fetch tool list: %v", err))
	} else {
		s.Tools = tools
	}
	cancel()
}

// Client returns the underlying MCP client.
func (s *Session) Client() *Client {
	return s.client
}

// Connected reports whether the server connection is still usable. It turns
// false when the session is closed or the server goes away.
func (s *Session) Connected() bool {
	return s.client.Connected()
}

// EngineTools bridges the discovered tools into the chat engine's tool
// interface.
func (s *Session) EngineTools() []tools.Tool {
	list := make([]tools.Tool, 0, len(s.Tools))
	for _, t := range s.Tools {
		list = append(list, NewServerTool(s.client, t))
	}
	return list
}

// Close tears the session down, terminating the server subprocess for stdio
// transports.
func (s *Session) Close() error {
	return s.client.Close()
}

// ConnectAll connects to every configured server concurrently and returns the
// sessions by name. Used by the inspect command when no server is named; a
// single unreachable server fails the whole run so problems are visible.
func ConnectAll(ctx context.Context, config *Config) (map[string]*Session, error) {
	var mu sync.Mutex
	sessions := make(map[string]*Session)

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range config.ServerNames() {
		serverConfig := config.MCPServers[name]
		g.Go(func() error {
			session, err := Connect(ctx, name, serverConfig)
			if err != nil {
				return err
			}
			mu.Lock()
			sessions[name] = session
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, session := range sessions {
			session.Close()
		}
		return nil, err
	}
	return sessions, nil
}
