// Package cli implements the ragbank command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbank/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

var (
	verbose   bool
	logLevel  string
	logFormat string
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "ragbank",
	Short: "Question answering over bank customer data and regulations",
	Long: `ragbank answers questions about a bank customer table and a folder of
regulatory PDFs. It summarises the table, indexes customers and PDF pages in
a vector store, retrieves the most relevant context and asks an LLM.

Run 'ragbank ingest' once, then 'ragbank ask "<question>"'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if err := logger.Init(logLevel, logFormat); err != nil {
			return err
		}
		logger.SetVerbose(verbose)
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logger.FormatConsole, "log format (console or json)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.ragbank)")
}

// Execute runs the root command and releases any wired services.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}
