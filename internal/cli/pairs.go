package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mtforge/mtforge/internal/infra/catalog"
)

func init() {
	rootCmd.AddCommand(pairsCmd)
}

var pairsCmd = &cobra.Command{
	Use:   "pairs",
	Short: "List the supported language pairs",
	RunE:  runPairsCmd,
}

func runPairsCmd(cmd *cobra.Command, args []string) error {
	pairs := catalog.Pairs()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPAIR\tDIRECTION")
	for i, p := range pairs {
		fmt.Fprintf(w, "%d\t%s\t%s -> %s\n",
			i+1, p.Key(), catalog.Name(p.Source), catalog.Name(p.Target))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d pairs across %d languages: %s\n",
		len(pairs), len(catalog.Languages), strings.Join(catalog.SortedCodes(), ", "))
	return nil
}
