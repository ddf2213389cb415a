package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/n8ntools/internal/api"
	"github.com/jackzampolin/n8ntools/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "n8ntools",
	Short: "PDF, OCR and vector store utilities for n8n workflows",
	Long: `n8ntools is an HTTP service that gives n8n workflows the document
operations they lack out of the box:

  - PDF splitting by ranges, single pages or fixed-size batches
  - PDF merging with append, interleave and per-source page selection
  - Mistral OCR for uploaded files and remote URLs
  - Qdrant collection management for RAG pipelines

Every endpoint is also reachable from the command line under 'n8ntools api'.`,
	Version:       version.String(),
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.n8ntools/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "n8ntools home directory (default: ~/.n8ntools)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
