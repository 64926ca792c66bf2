package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/lexdraft/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing legal research, clause search and document analysis tools to AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// stdout carries the protocol.
		log.SetOutput(os.Stderr)

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "lexdraft MCP server started on stdio (backend=%s)\n", cfg.BaseURL)

		srv := mcpserver.NewServer(newClient(cfg), mcpserver.Options{
			ResultCount: cfg.ResultCount,
			ClauseTopK:  cfg.ClauseTopK,
		})
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
