package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	version  = "dev" // set by build flags
)

var rootCmd = &cobra.Command{
	Use:   "medcouncil",
	Short: "Privacy-first medical triage and council deliberation service",
	Long: `medcouncil serves a privacy-first medical triage API. Sanitized symptom
descriptions pass a deterministic red-flag gate, then a multi-model LLM
council produces a synthesized recommendation augmented with locally
retrieved medical context. Federated adapter updates are aggregated under
differential privacy.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, optional)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
