package main

import (
	"github.com/spf13/cobra"

	"github.com/docgate/docgate/version"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "docgate",
	Short: "Document AI gateway with multi-provider OCR and analysis",
	Long: `Docgate is an AI-provider gateway for document processing. It extracts
text from document images and classifies documents into structured
results, falling back across providers when one is unavailable.

Capabilities:
  - OCR over base64 data URI images (OpenAI primary)
  - Document type and field extraction (Anthropic primary)
  - OpenRouter as the fallback for both operations
  - Bounded retry of transient failures, provider health caching`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.docgate/config.yaml)",
	)

	rootCmd.AddCommand(versionCmd)
}
