package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oferdebug/projectzen/internal/domain"
	"github.com/oferdebug/projectzen/internal/gateway"
	"github.com/oferdebug/projectzen/internal/report"
	"github.com/oferdebug/projectzen/internal/usecase"
)

// repositoryMetrics pairs a repository with its computed metrics in JSON output.
type repositoryMetrics struct {
	RepositoryID string                `json:"repositoryId"`
	Metrics      domain.ProjectMetrics `json:"metrics"`
}

var metricsCmd = &cobra.Command{
	Use:   "metrics <owner/name>...",
	Short: "Computes health metrics for GitHub repositories",
	Long: `Fetches each repository from the GitHub API and computes its activity,
maintenance, stability and community metrics. Results are printed as JSON,
or as a table with --format table. Set GITHUB_TOKEN to raise rate limits.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != "json" && format != "table" {
			return fmt.Errorf("invalid --format %q (must be: json, table)", format)
		}

		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		// Inject dependencies and run the main business logic.
		githubGateway, err := gateway.NewGitHubGateway(cfg.GitHub, logger)
		if err != nil {
			return fmt.Errorf("failed to create GitHub gateway: %w", err)
		}
		aggregator := usecase.NewAggregator(githubGateway, logger)
		defer aggregator.Close()

		results := make([]repositoryMetrics, 0, len(args))
		for _, repositoryID := range args {
			metrics, err := aggregator.Compute(cmd.Context(), repositoryID)
			if err != nil {
				return fmt.Errorf("failed to compute metrics for %s: %w", repositoryID, err)
			}
			results = append(results, repositoryMetrics{RepositoryID: repositoryID, Metrics: *metrics})
		}

		out := cmd.OutOrStdout()
		if format == "table" {
			for _, r := range results {
				fmt.Fprint(out, report.Table(r.RepositoryID, r.Metrics))
			}
			return nil
		}

		// Marshal the results into a pretty-printed JSON string.
		jsonData, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results to JSON: %w", err)
		}
		fmt.Fprintln(out, string(jsonData))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)
	metricsCmd.Flags().StringP("format", "f", "json", "Output format (json, table)")
}
