package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/idempomlieko/expressive/internal/mcp"
	"github.com/idempomlieko/expressive/mcpserver"
)

// Stdio MCP server exposing expression administration tools.
// Relays tool calls to the bot's admin HTTP API.
func main() {
	apiURL := os.Getenv("EXPRESSIVE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8787"
	}

	// MCP speaks on stdout; keep logs on stderr
	logrus.SetOutput(os.Stderr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	server := mcpserver.NewServer(mcp.NewClient(apiURL))
	if err := server.Run(ctx); err != nil {
		logrus.Fatalf("MCP server error: %v", err)
	}
}
