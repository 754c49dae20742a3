package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Semantically search the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().Int("limit", 5, "maximum number of passages")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	index, err := createIndex(cfg)
	if err != nil {
		return err
	}
	if err := index.LoadOrCreate(cmd.Context(), nil); err != nil {
		return err
	}
	if !index.Ready() {
		fmt.Println("No knowledge index found. Run `campusguide corpus load` or resolve tickets first.")
		return nil
	}

	passages, err := index.Search(cmd.Context(), args[0], limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(passages) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(passages)
	}

	fmt.Printf("Found %d passages:\n\n", len(passages))
	for i, p := range passages {
		fmt.Printf("  %d. [%.1f%%] %s\n\n", i+1, p.Similarity*100, truncate(p.Content, 200))
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
