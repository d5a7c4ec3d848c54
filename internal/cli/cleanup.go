package cli

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mtforge/mtforge/internal/cleanup"
	"github.com/mtforge/mtforge/internal/workspace"
)

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Prune leftover files from artifact directories",
	Long: `Delete everything from the artifact directories that is not part of
a finished model: exporter leftovers, quantizer scratch space, stray
configs. Safe to run at any time, including mid-batch.`,
	RunE: runCleanup,
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ws, err := workspace.New()
	if err != nil {
		return err
	}
	defer ws.Close()

	report, err := cleanup.Sweep(ws.ModelsDir())
	if err != nil {
		return err
	}

	for _, dr := range report.Dirs {
		if dr.FilesDeleted == 0 {
			continue
		}
		fmt.Printf("%s: removed %d entries (%s)\n",
			filepath.Base(dr.Dir), dr.FilesDeleted, humanize.IBytes(uint64(dr.BytesReclaimed)))
	}
	fmt.Printf("Reclaimed %s across %d directories\n",
		humanize.IBytes(uint64(report.TotalBytes)), len(report.Dirs))
	return nil
}
