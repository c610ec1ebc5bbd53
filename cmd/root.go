package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath            string
	verbose               bool
	version, commit, date string
)

// SetVersionInfo sets version information from ldflags
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

var rootCmd = &cobra.Command{
	Use:   "mcpchat",
	Short: "Browser chat client for MCP servers",
	Long: `mcpchat serves a single-page chat UI that connects to MCP servers
listed in mcp.json, shows what each server offers (prompts, resources,
tools), and relays tool calls between the model and the selected server
during a conversation.

The model API key is read from GEMINI_API_KEY (a .env file in the
working directory is loaded if present).`,
	Example: `  mcpchat init                 # Write a starter mcp.json and .env
  mcpchat serve                # Serve the chat UI on localhost:8080
  mcpchat inspect filesystem   # Connect to one server and list its capabilities
  mcpchat inspect              # Probe every configured server`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initEnv)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "mcp.json", "Path to the MCP server config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
}

func initEnv() {
	// Missing .env is fine; the key may come from the environment.
	_ = godotenv.Load()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// Execute runs the root command
func Execute() error {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
	return rootCmd.Execute()
}

func versionTemplate() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("mcpchat %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("mcpchat %s\n", version)
}
