// Package cmd implements the CLI commands for PageMark using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kunal-varma/pagemark/internal/logger"
)

var flagDebug bool

var rootCmd = &cobra.Command{
	Use:   "pagemark",
	Short: "PageMark — convert web pages into clean Markdown",
	Long: `PageMark fetches a web page, recovers the article content (including
content buried in SSR payloads such as __NEXT_DATA__), and converts it
into Markdown, PDF, or structured JSON.

Usage:
  pagemark grab <url> [flags]`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(logger.Options{Debug: flagDebug})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
