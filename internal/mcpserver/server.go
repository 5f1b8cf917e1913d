// Package mcpserver exposes analyze and fix as MCP tools over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/stepdown/internal/pipeline"
	"github.com/mvp-joe/stepdown/internal/rules"
)

// Server manages the MCP server lifecycle.
type Server struct {
	pipeline *pipeline.Pipeline
	mcp      *server.MCPServer
}

// New creates an MCP server backed by a pipeline built from the given
// registry and enabled rule IDs. maxPasses is threaded to the fix tool.
func New(registry *rules.Registry, enabledIDs []string, maxPasses int) (*Server, error) {
	p, err := pipeline.New(registry, enabledIDs, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	mcpServer := server.NewMCPServer(
		"stepdown-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	AddAnalyzeTool(mcpServer, p)
	AddFixTool(mcpServer, p, maxPasses)

	return &Server{pipeline: p, mcp: mcpServer}, nil
}

// Serve starts the server on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.pipeline.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
