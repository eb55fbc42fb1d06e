package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aretw0/titrate/pkg/adapters/mcp"
)

// MCPOptions configures the 'mcp' command.
type MCPOptions struct {
	Options
	Transport string
	Port      int
}

// ServeMCP runs the MCP server on the chosen transport.
func ServeMCP(ctx context.Context, opts MCPOptions) error {
	logger, err := opts.NewLogger()
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	src, closeSource, err := opts.openSource()
	if err != nil {
		return err
	}
	defer closeSource()

	engine, err := createEngine(ctx, opts.Options, src, logger, debugHooks(logger))
	if err != nil {
		return err
	}
	srv := mcp.NewServer(engine)

	switch opts.Transport {
	case "", "stdio":
		// Keep Stdout clean for JSON-RPC
		log.SetOutput(os.Stderr)
		logger.Info("Starting titrate MCP Server (Stdio)")
		return srv.ServeStdio()
	case "sse":
		logger.Info("Starting titrate MCP Server (SSE)", "port", opts.Port)
		if err := srv.ServeSSE(ctx, opts.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("MCP Server stopped gracefully", "cause", shutdownCause(ctx))
		return nil
	default:
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", opts.Transport)
	}
}
