package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/naflume/internal/db"
	mcpserver "github.com/ziadkadry99/naflume/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing content
search, verse of the day, reference lookup, themes and Quran verse tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		defer log.Sync()

		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		gateway, release, err := newGateway(context.Background(), cfg, log)
		if err != nil {
			return err
		}
		defer release()

		svc := newGuidanceService(database, gateway, nil, cfg, log)

		fmt.Fprintf(os.Stderr, "naflume MCP server started on stdio (database=%s)\n", database.Path())

		srv := mcpserver.NewServer(svc, gateway, log)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
