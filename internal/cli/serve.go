package cli

import (
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mtforge/mtforge/internal/api"
	"github.com/mtforge/mtforge/internal/batch"
	"github.com/mtforge/mtforge/internal/workspace"
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only status API",
	Long: `Serve batch progress, the artifact index, and verification results
over HTTP, for dashboards watching a long conversion run.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ws, err := workspace.New()
	if err != nil {
		return err
	}
	defer ws.Close()

	if serveHost != "" {
		ws.Config.API.Host = serveHost
	}
	if servePort > 0 {
		ws.Config.API.Port = servePort
	}

	server := api.NewServer(ws.DB, batch.NewStore(ws.ProgressPath()),
		ws.ResultsPath(), rootCmd.Version)
	if ws.Config.Telemetry.Prometheus {
		server.EnableMetrics()
	}

	addr := net.JoinHostPort(ws.Config.API.Host, strconv.Itoa(ws.Config.API.Port))
	fmt.Printf("Listening on http://%s\n", addr)
	return http.ListenAndServe(addr, server.Handler())
}
