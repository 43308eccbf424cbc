// Package cmd implements the jurigo command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jurigo",
	Short: "Jurigo — assistant juridique avec recherche de sources",
	Long: `Jurigo is the retrieval backend of a legal-assistant chat application.

It answers legal questions grounded in three corpora — civil-code articles,
case law, and methodology notes — combining exact statute-reference lookup
with embedding similarity search.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
