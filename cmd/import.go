package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"

	"github.com/ziadkadry99/soassoc/internal/progress"
	"github.com/ziadkadry99/soassoc/internal/suggested"
)

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Import most-viewed question CSV files",
	Long: `Imports question_id,view_count rows from a CSV file, or from every
file below a directory matching --pattern, into the suggested questions list.
Patterns support ** to match any depth.`,
	Args: cobra.ExactArgs(1),
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

		pattern, _ := cmd.Flags().GetString("pattern")
		store := suggested.NewStore(database)
		n, err := store.ImportPath(cmd.Context(), args[0], pattern, progress.NewReporter("Importing views"))
		if err != nil {
			return fmt.Errorf("importing %s: %w", args[0], err)
		}
		log.WithFields(log.Fields{"rows": n, "path": args[0]}).Info("import finished")
		return nil
	},
}

func init() {
	importCmd.Flags().String("pattern", suggested.DefaultPattern, "glob selecting CSV files inside a directory")
	rootCmd.AddCommand(importCmd)
}
