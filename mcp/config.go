package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

var (
	// ErrNoServers is returned when the config file parses but has no
	// mcpServers key.
	ErrNoServers = errors.New("config file does not contain 'mcpServers' key")
)

// Config is the parsed mcp.json file: a map of unique server names to their
// launch/connection parameters.
type Config struct {
	MCPServers map[string]ServerConfig `json:"mcpServers"`
}

// ServerConfig describes one configured MCP server. Exactly one connection
// style must be present: command (stdio subprocess), url (HTTP endpoint), or
// host+port (TCP).
type ServerConfig struct {
	// For stdio-based servers
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`

	// For HTTP-based servers
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Auth    *AuthConfig       `json:"auth,omitempty"`

	// For TCP-based servers
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// LoadConfig reads and validates an mcp.json file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses and validates mcp.json data.
func ParseConfig(data []byte) (*Config, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}
	if _, ok := raw["mcpServers"]; !ok {
		return nil, ErrNoServers
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	for name, server := range config.MCPServers {
		if err := server.Validate(); err != nil {
			return nil, fmt.Errorf("server %q: %w", name, err)
		}
	}

	return &config, nil
}

// Validate checks that the server config specifies a usable connection style.
func (s ServerConfig) Validate() error {
	switch {
	case s.Command != "":
		return nil
	case s.URL != "":
		return nil
	case s.Host != "" && s.Port > 0:
		return nil
	default:
		return fmt.Errorf("must specify either command, url, or host+port")
	}
}

// ServerNames returns the configured server names in sorted order, so the UI
// dropdown is stable across page loads.
func (c *Config) ServerNames() []string {
	names := make([]string, 0, len(c.MCPServers))
	for name := range c.MCPServers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Server returns the config for a named server.
func (c *Config) Server(name string) (ServerConfig, bool) {
	server, ok := c.MCPServers[name]
	return server, ok
}

// TransportConfig converts a server entry into connection parameters.
func (s ServerConfig) TransportConfig() (TransportConfig, error) {
	if err := s.Validate(); err != nil {
		return TransportConfig{}, err
	}

	switch {
	case s.Command != "":
		return TransportConfig{
			Type:    "stdio",
			Command: s.Command,
			Args:    s.Args,
			Env:     s.Env,
		}, nil
	case s.URL != "":
		return TransportConfig{
			Type:    "http",
			URL:     s.URL,
			Headers: s.Headers,
			Auth:    s.Auth,
		}, nil
	default:
		return TransportConfig{
			Type: "tcp",
			Host: s.Host,
			Port: s.Port,
		}, nil
	}
}

// WriteExampleConfig creates an example MCP configuration file. It refuses to
// overwrite an existing file.
func WriteExampleConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	config := Config{
		MCPServers: map[string]ServerConfig{
			"demo": {
				Command: "mcpchat",
				Args:    []string{"demo-server"},
			},
			"filesystem": {
				Command: "npx",
				Args:    []string{"-y", "@modelcontextprotocol/server-filesystem", "/path/to/allowed/files"},
				Env: map[string]string{
					"NODE_ENV": "production",
				},
			},
			"web-search": {
				URL: "http://localhost:3000/mcp",
				Headers: map[string]string{
					"Authorization": "Bearer your-api-key",
				},
			},
		},
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write example config: %w", err)
	}

	return nil
}
