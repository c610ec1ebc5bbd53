package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcpchat/mcpchat/content"
	"github.com/mcpchat/mcpchat/google"
	"github.com/mcpchat/mcpchat/internal/web"
	"github.com/mcpchat/mcpchat/llms"
	"github.com/mcpchat/mcpchat/mcp"
	"github.com/mcpchat/mcpchat/tools"
)

const defaultSystemPrompt = "You are a helpful assistant. Use the available tools when they help answer the user's question."

var (
	serveAddr    string
	serveModel   string
	serveSystem  string
	serveTimeout time.Duration
	serveDebug   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat UI",
	Long: `Serve the single-page chat UI. The page lists the servers from the
config file; selecting one connects to it and makes its tools available
to the model for the conversation.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost:8080", "Address to listen on")
	serveCmd.Flags().StringVar(&serveModel, "model", "gemini-2.0-flash-exp", "Model to chat with")
	serveCmd.Flags().StringVar(&serveSystem, "system", defaultSystemPrompt, "System prompt for the model")
	serveCmd.Flags().DurationVar(&serveTimeout, "chat-timeout", 2*time.Minute, "Timeout for a full chat exchange")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Dump each model exchange to debug.yaml")
	rootCmd.AddCommand(serveCmd)
}

func apiKey() (string, error) {
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(name); key != "" {
			return key, nil
		}
	}
	return "", errors.New("GEMINI_API_KEY is not set (put it in .env or the environment)")
}

func runServe(cmd *cobra.Command, args []string) error {
	config, err := mcp.LoadConfig(configPath)
	if err != nil {
		return err
	}

	key, err := apiKey()
	if err != nil {
		return err
	}

	newEngine := func(toolsList []tools.Tool) *llms.LLM {
		engine := llms.New(google.New(serveModel, key), toolsList...)
		engine.SystemPrompt = func() content.Content {
			return content.FromText(serveSystem)
		}
		if serveDebug {
			engine = engine.WithDebug()
		}
		return engine
	}

	server := web.NewWebServer(web.Config{
		MCPConfig:   config,
		NewEngine:   newEngine,
		ChatTimeout: serveTimeout,
		Logger:      slog.Default(),
	})
	defer server.Close()

	httpServer := &http.Server{
		Addr:    serveAddr,
		Handler: server.Handler(),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		slog.Info("serving chat UI", "addr", fmt.Sprintf("http://%s/", serveAddr), "model", serveModel, "servers", len(config.ServerNames()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
