package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mtforge/mtforge/internal/health"
	"github.com/mtforge/mtforge/internal/infra/engine"
	"github.com/mtforge/mtforge/internal/workspace"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the workspace",
	Long: `Check the database, the artifact directories, the index, and the
external conversion toolchain, and report anything broken.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ws, err := workspace.New()
	if err != nil {
		return err
	}
	defer ws.Close()

	probe := func() error {
		_, err := engine.NewToolchain(ws.Config.Workspace.Dir)
		return err
	}

	checker := health.NewChecker(ws.DB, ws.ModelsDir(), probe)
	statuses := checker.RunAll(cmd.Context())

	for _, s := range statuses {
		if s.Healthy {
			fmt.Printf("[ok]   %s\n", s.Name)
		} else {
			fmt.Printf("[FAIL] %s: %s\n", s.Name, s.Error)
		}
	}

	if !health.Healthy(statuses) {
		return fmt.Errorf("workspace has problems")
	}
	fmt.Println("\nWorkspace is healthy.")
	return nil
}
