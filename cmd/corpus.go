package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OfonoA/campusGuide1/internal/corpus"
	"github.com/OfonoA/campusGuide1/internal/db"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the bulk-loaded document corpus",
}

var corpusLoadCmd = &cobra.Command{
	Use:   "load [dir]",
	Short: "Bulk-load pre-extracted documents into the knowledge base",
	Long: `Reads text and markdown files from the given directory (default from
config), chunks them and adds them to the vector index. The index is
created from the first batch when none exists yet.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dir := cfg.Corpus.Dir
		if len(args) == 1 {
			dir = args[0]
		}

		database, err := db.Open(cfg.DatabasePath())
		if err != nil {
			return err
		}
		defer database.Close()

		index, err := createIndex(cfg)
		if err != nil {
			return err
		}
		if err := index.LoadOrCreate(cmd.Context(), nil); err != nil {
			return err
		}
		defer index.Close()

		summary, err := corpus.NewLoader(database, index).Load(cmd.Context(), dir, cfg.Corpus.Include, source)
		if err != nil {
			return err
		}

		fmt.Printf("Loaded %d files (%d chunks) from %s.\n", summary.Files, summary.Chunks, dir)
		return nil
	},
}

func init() {
	corpusLoadCmd.Flags().String("source", "manual", "document source kind: manual, policy or faq")
	corpusCmd.AddCommand(corpusLoadCmd)
	rootCmd.AddCommand(corpusCmd)
}
