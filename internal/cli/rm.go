package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mtforge/mtforge/internal/domain"
	"github.com/mtforge/mtforge/internal/workspace"
)

func init() {
	rootCmd.AddCommand(rmCmd)
}

var rmCmd = &cobra.Command{
	Use:   "rm PAIR",
	Short: "Remove a converted pair from local storage",
	Args:  cobra.ExactArgs(1),
	RunE:  runRm,
}

func runRm(cmd *cobra.Command, args []string) error {
	pair, err := domain.ParsePair(args[0])
	if err != nil {
		return err
	}

	ws, err := workspace.New()
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := os.RemoveAll(ws.PairDir(pair)); err != nil {
		return err
	}
	// The index row may be absent when only the directory existed.
	if err := ws.DB.DeleteArtifact(pair.Key()); err != nil &&
		!errors.Is(err, domain.ErrArtifactNotFound) {
		return err
	}

	fmt.Printf("Removed %s\n", pair)
	return nil
}
