package cmd

import (
	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"

	mcpserver "github.com/ziadkadry99/soassoc/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing question lookup and candidate search tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		d, err := buildDeps(cfg, database)
		if err != nil {
			return err
		}
		defer d.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		log.WithFields(log.Fields{
			"source_site": cfg.StackExchange.SourceSite,
			"target_site": cfg.StackExchange.TargetSite,
		}).Info("soassoc MCP server started on stdio")

		srv := mcpserver.NewServer(d.ctrl, d.source, d.associations.Store())
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
