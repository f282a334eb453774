package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oferdebug/projectzen/internal/gateway"
	"github.com/oferdebug/projectzen/internal/server"
	"github.com/oferdebug/projectzen/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves repository metrics over HTTP",
	Long: `Starts an HTTP API holding one metrics state:
  GET   /api/metrics          current status, metrics and error
  POST  /api/metrics/compute  {"repositoryId": "owner/name"}
  PATCH /api/metrics          replace whole metrics groups`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		githubGateway, err := gateway.NewGitHubGateway(cfg.GitHub, logger)
		if err != nil {
			return fmt.Errorf("failed to create GitHub gateway: %w", err)
		}
		aggregator := usecase.NewAggregator(githubGateway, logger)
		defer aggregator.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = server.New(aggregator, cfg.Server, logger).ListenAndServe(ctx)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().StringSlice("allowed-origin", []string{"http://localhost:3000"}, "CORS allowed origin (repeatable)")
	bindFlag(serveCmd, "server.addr", "addr")
	bindFlag(serveCmd, "server.allowed_origins", "allowed-origin")
}
