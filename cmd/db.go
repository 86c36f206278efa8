package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/soassoc/internal/auth"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the soassoc database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Open runs the migrations.
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		fmt.Printf("Database ready at %s\n", database.Path())
		return nil
	},
}

var dbPurgeCmd = &cobra.Command{
	Use:   "purge-sessions",
	Short: "Remove expired browser sessions",
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

		n, err := auth.NewStore(database).PurgeExpired(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d expired sessions\n", n)
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbPurgeCmd)
	rootCmd.AddCommand(dbCmd)
}
