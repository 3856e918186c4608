package main

import (
	"github.com/spf13/cobra"

	"github.com/tablemind/recall/internal/memory"
	"github.com/tablemind/recall/internal/privacy"
	"github.com/tablemind/recall/modules/mcp"
	sqlitestore "github.com/tablemind/recall/modules/memory/sqlite"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the memory tools over the Model Context Protocol on stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			gate := privacy.NewGate()
			// stdout carries the protocol; the logger writes to stderr.
			logger := buildLogger(cfg.Logging, gate)

			store, err := sqlitestore.Open(cmd.Context(), cfg.Store, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			// The MCP tools store and forget explicitly; extraction never
			// runs here.
			engine := memory.NewEngine(store, memory.NopExtractor{}, gate, memory.WithLogger(logger))

			return mcp.New(store, engine, version, logger).ServeStdio()
		},
	}
}
