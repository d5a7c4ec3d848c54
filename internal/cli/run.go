package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mtforge/mtforge/internal/batch"
	"github.com/mtforge/mtforge/internal/domain"
	"github.com/mtforge/mtforge/internal/infra/catalog"
	"github.com/mtforge/mtforge/internal/pipeline"
	"github.com/mtforge/mtforge/internal/workspace"
)

func init() {
	runCmd.Flags().StringSliceVar(&runPairs, "pairs", nil, "Convert only these pairs (e.g. en-tr,de-en)")
	runCmd.Flags().BoolVar(&runNoQuantize, "no-quantize", false, "Skip INT8 quantization")
	runCmd.Flags().BoolVar(&runMock, "mock", false, "Allow running without the Python toolchain (mock conversion)")
	rootCmd.AddCommand(runCmd)
}

var (
	runPairs      []string
	runNoQuantize bool
	runMock       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Convert all supported language pairs",
	Long: `Run the conversion sweep: fetch each checkpoint, export it to ONNX,
quantize, prune, and record it. Progress persists after every pair, so
an interrupted run resumes where it stopped.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ws, err := workspace.New()
	if err != nil {
		return err
	}
	defer ws.Close()

	if !runMock {
		if err := ws.RequireToolchain(); err != nil {
			return err
		}
	}

	if runNoQuantize {
		ws.Config.Convert.Quantize = false
	}

	p := pipeline.New(ws)
	p.SetProgress(newProgressBar().callback)

	runner := batch.NewRunner(p, batch.NewStore(ws.ProgressPath()), ws.DB)
	if len(runPairs) > 0 {
		pairs, err := parsePairArgs(runPairs)
		if err != nil {
			return err
		}
		runner.SetPairs(pairs)
	}

	// A second Ctrl-C kills the process; the first one lets the current
	// pair wind down and the log flush.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runner.Run(ctx)
	if summary != nil {
		printSummary(summary)
	}
	if err != nil {
		return err
	}
	if len(summary.Failed) > 0 {
		return fmt.Errorf("%d of %d pairs failed", len(summary.Failed), summary.TotalPairs)
	}
	return nil
}

func printSummary(s *batch.Summary) {
	fmt.Println()
	fmt.Println("Summary")
	fmt.Printf("  Completed: %d\n", s.Completed)
	fmt.Printf("  Skipped:   %d\n", s.Skipped)
	fmt.Printf("  Failed:    %d\n", len(s.Failed))
	for _, f := range s.Failed {
		fmt.Printf("    %s (%s)\n", f.Pair, f.Reason)
	}
	if s.TotalSizeBytes > 0 {
		fmt.Printf("  Total size: %s\n", humanize.IBytes(uint64(s.TotalSizeBytes)))
	}
}

func parsePairArgs(keys []string) ([]domain.LanguagePair, error) {
	pairs := make([]domain.LanguagePair, 0, len(keys))
	for _, key := range keys {
		pair, err := domain.ParsePair(key)
		if err != nil {
			return nil, err
		}
		if !catalog.Contains(pair) {
			return nil, fmt.Errorf("%s: %w", key, domain.ErrPairUnknown)
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}
