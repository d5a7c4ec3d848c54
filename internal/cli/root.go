// Package cli implements the mtforge command-line interface using
// Cobra. Each subcommand maps to one toolkit operation (run, verify,
// optimize, cleanup, etc.).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mtforge",
	Short: "mtforge — Build compact offline translation models",
	Long: `mtforge converts Helsinki-NLP Marian checkpoints into pruned,
INT8-quantized ONNX artifact sets, one directory per language pair.

A full run sweeps every supported pair, survives interruption, and can
be resumed by running it again.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
