package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mtforge/mtforge/internal/workspace"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List converted models",
	RunE:    runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ws, err := workspace.New()
	if err != nil {
		return err
	}
	defer ws.Close()

	infos, err := ws.DB.ListArtifacts()
	if err != nil {
		return err
	}

	if len(infos) == 0 {
		fmt.Println("No converted models. Run 'mtforge run' to build them.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PAIR\tMODEL\tSIZE\tQUANT\tCONVERTED")
	var total int64
	for _, m := range infos {
		quant := "-"
		if m.Quantized {
			quant = "int8"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			m.Pair,
			m.ModelName,
			humanize.IBytes(uint64(m.SizeBytes)),
			quant,
			m.ConvertedAt.Format("2006-01-02 15:04"),
		)
		total += m.SizeBytes
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d models, %s total\n", len(infos), humanize.IBytes(uint64(total)))
	return nil
}
