package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mtforge/mtforge/internal/domain"
	"github.com/mtforge/mtforge/internal/infra/catalog"
	"github.com/mtforge/mtforge/internal/pipeline"
	"github.com/mtforge/mtforge/internal/workspace"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show PAIR",
	Short: "Show detailed information about a converted pair",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	pair, err := domain.ParsePair(args[0])
	if err != nil {
		return err
	}

	ws, err := workspace.New()
	if err != nil {
		return err
	}
	defer ws.Close()

	info, err := ws.DB.GetArtifact(pair.Key())
	if err != nil {
		return err
	}
	if info == nil {
		return fmt.Errorf("%s: %w", pair, domain.ErrArtifactNotFound)
	}

	quant := "none"
	if info.Quantized {
		quant = "int8"
	}

	fmt.Printf("Pair:         %s (%s -> %s)\n", info.Pair,
		catalog.Name(pair.Source), catalog.Name(pair.Target))
	fmt.Printf("Model:        %s\n", info.ModelName)
	fmt.Printf("Size:         %s\n", humanize.IBytes(uint64(info.SizeBytes)))
	fmt.Printf("Quantization: %s\n", quant)
	fmt.Printf("Converted:    %s\n", info.ConvertedAt.Format("2006-01-02 15:04:05"))
	if !info.OptimizedAt.IsZero() {
		fmt.Printf("Optimized:    %s\n", info.OptimizedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("Directory:    %s\n", ws.PairDir(pair))

	if meta, err := pipeline.ReadMetadata(ws.PairDir(pair)); err == nil && meta.OptimizationPasses > 0 {
		fmt.Printf("Passes:       %d\n", meta.OptimizationPasses)
	}

	return nil
}
