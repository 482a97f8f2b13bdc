package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/bidwise/bidwise/internal/api"
	"github.com/bidwise/bidwise/internal/score"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve dashboard data to MCP clients over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		// stdout carries the protocol; logs go to stderr.
		st, cfg, err := openStore()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Store:   st,
			Summary: score.Default(),
			Version: version,
		})
		stdioSrv := server.NewStdioServer(mcpSrv)

		slog.Info("MCP server started (stdio transport)", "base_url", cfg.API.BaseURL)
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
