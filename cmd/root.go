package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "campusguide",
	Short: "Student support knowledge service with feedback-driven reinforcement",
	Long: `Campus Guide routes student support interactions to an automated
knowledge-base answer or a human-staffed ticket, and feeds validated
staff resolutions back into the knowledge base where they become
searchable for future questions.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".campusguide.yml", "config file path")
}
