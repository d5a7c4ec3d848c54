package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mtforge/mtforge/internal/optimize"
	"github.com/mtforge/mtforge/internal/workspace"
)

func init() {
	rootCmd.AddCommand(optimizeCmd)
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run graph optimization passes over converted models",
	Long: `Apply ONNX graph optimization passes to every converted model and
minify the JSON sidecars. Re-runnable; already optimized models simply
get re-stamped.`,
	RunE: runOptimize,
}

func runOptimize(cmd *cobra.Command, args []string) error {
	ws, err := workspace.New()
	if err != nil {
		return err
	}
	defer ws.Close()

	sweeper := optimize.New(ws)
	report, err := sweeper.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("\nOptimized %d models", report.Optimized)
	if saved := report.BytesSaved(); saved > 0 {
		fmt.Printf(", saved %s", humanize.IBytes(uint64(saved)))
	}
	fmt.Println()

	if report.Failed > 0 {
		return fmt.Errorf("%d models failed to optimize", report.Failed)
	}
	return nil
}
