package cmd

import (
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lexdraft/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lexdraft",
	Short: "Legal research, document analysis and drafting from the terminal",
	Long: `lexdraft talks to a legal drafting backend. Ask legal questions, attach a
contract and analyze it, search reference clauses, or draft a document from a
plain-language description and take it through edit, validation and export.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Package logs are diagnostics; keep them out of the REPLs unless asked.
		if !verbose {
			log.SetOutput(io.Discard)
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
