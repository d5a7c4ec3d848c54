package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtforge/mtforge/internal/verify"
	"github.com/mtforge/mtforge/internal/workspace"
)

func init() {
	verifyCmd.Flags().BoolVar(&verifyMock, "mock", false, "Allow verifying without the Python toolchain (mock inference)")
	rootCmd.AddCommand(verifyCmd)
}

var verifyMock bool

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Smoke-test every converted model",
	Long: `Load each converted model and translate one fixed sentence through
it. Results are written to test_results.json in the workspace.`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	ws, err := workspace.New()
	if err != nil {
		return err
	}
	defer ws.Close()

	if !verifyMock {
		if err := ws.RequireToolchain(); err != nil {
			return err
		}
	}

	result, err := verify.New(ws).Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("\n%d/%d models passed\n", len(result.Passed), result.Total)
	return result.Err()
}
