package main

import (
	"fmt"

	"github.com/nvandessel/chunkgraph/internal/logging"
	"github.com/nvandessel/chunkgraph/internal/mcp"
	"github.com/nvandessel/chunkgraph/internal/telemetry"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-server",
		Short: "Run chunkgraph as an MCP (Model Context Protocol) server",
		Long: `Start an MCP server that exposes the chunk graph over stdio.

Tools:

  • chunkgraph_ingest   - Merge relation lines into the graph
  • chunkgraph_related  - Chunks related to a chunk within a hop limit
  • chunkgraph_paths    - Shortest distance to every chunk
  • chunkgraph_nearest  - Closest reachable chunks
  • chunkgraph_metrics  - Connectivity metrics per chunk
  • chunkgraph_stats    - Edge weight statistics
  • chunkgraph_search   - Find chunks by name

The server communicates via JSON-RPC 2.0 over stdin/stdout. Logs go to stderr.

Example client configuration:

  {
    "mcpServers": {
      "chunkgraph": {
        "command": "chunkgraph",
        "args": ["mcp-server"],
        "cwd": "${workspaceFolder}"
      }
    }
  }
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
			if err != nil {
				return err
			}
			defer logger.Sync()

			metrics := telemetry.New()
			if cfg.Metrics.Textfile != "" {
				defer func() {
					if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
					}
				}()
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "chunkgraph",
				Version:  version,
				Root:     root,
				Settings: &cfg,
				Logger:   logger,
				Metrics:  metrics,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			// Blocks until the client disconnects or the process is signalled.
			if err := server.Run(cmd.Context()); err != nil {
				return fmt.Errorf("MCP server error: %w", err)
			}
			return nil
		},
	}
}
