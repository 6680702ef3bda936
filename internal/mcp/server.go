// Package mcp exposes the chat server to MCP clients over stdio.
package mcp

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config holds the configuration for the MCP server.
type Config struct {
	APIURL   string
	ChatAddr string
	Name     string
}

// NewServer builds the MCP server with every tool registered.
func NewServer(cfg Config) *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer(
		"roomtalk",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)
	RegisterTools(srv, NewHTTPClient(cfg.APIURL), NewLineClient(cfg.ChatAddr, cfg.Name))
	return srv
}

// Serve starts the MCP stdio server. It blocks until stdin is closed or a signal is received.
func Serve(cfg Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stdioSrv := mcpserver.NewStdioServer(NewServer(cfg))
	return stdioSrv.Listen(ctx, os.Stdin, os.Stdout)
}
