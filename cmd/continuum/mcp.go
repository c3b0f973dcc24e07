package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aretw0/continuum/internal/adapters/mcp"
	"github.com/aretw0/continuum/internal/logging"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the persisted sessions as MCP tools over Standard Input/Output.
This allows AI agents inside the editor to list and read flushed sessions.

Tools:
- list_sessions: summaries of every persisted session
- get_session:   one session with its full event log`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)
		logger := logging.New(level)

		backend := openBackend(cmd)
		defer backend.Close()

		srv := mcp.NewServer(backend.Store, mcp.WithLogger(logger))
		if err := srv.ServeStdio(); err != nil {
			logger.Error("MCP server stopped", "err", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
