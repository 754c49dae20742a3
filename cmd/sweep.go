package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OfonoA/campusGuide1/internal/db"
	"github.com/OfonoA/campusGuide1/internal/reinforcement"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one reinforcement ingestion sweep",
	Long: `Scans for validated staff resolutions that have not been ingested yet
and promotes each into the searchable knowledge base. Rows whose
embedding fails entirely stay pending and are retried on the next sweep.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
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

		report, err := reinforcement.NewEngine(database, index).Sweep(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Scanned %d pending rows: %d ingested, %d skipped, %d chunks added.\n",
			report.Scanned, report.Ingested, report.Skipped, report.Chunks)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
