// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/oferdebug/projectzen/internal/config"
)

var (
	configFilePath string
	vConfig        = config.New()
)

const configFileFlag = "config"

var rootCmd = &cobra.Command{
	Use:   "projectzen",
	Short: "A CLI tool to score the health of GitHub repositories.",
	Long: `projectzen scores a GitHub repository on activity, maintenance,
stability and community, either once from the command line or through
an HTTP API a dashboard can poll.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringVar(&configFilePath, configFileFlag, "", "Path to the config file")
	cobra.CheckErr(rootCmd.MarkPersistentFlagFilename(configFileFlag, "yaml", "yml", "json", "toml"))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json, logfmt)")
	rootCmd.PersistentFlags().String("base-url", "https://api.github.com/", "GitHub REST API root")
	rootCmd.PersistentFlags().Int("per-page", 0, "Page size for pull request and contributor lists (0 keeps the API default)")
	rootCmd.PersistentFlags().Bool("enrich", false, "Fill commit and release totals through the GraphQL API")
	rootCmd.PersistentFlags().Bool("wait-rate-limit", false, "Sleep through secondary rate limits instead of failing")

	bindFlag(rootCmd, "logger.level", "log-level")
	bindFlag(rootCmd, "logger.format", "log-format")
	bindFlag(rootCmd, "github.base_url", "base-url")
	bindFlag(rootCmd, "github.per_page", "per-page")
	bindFlag(rootCmd, "github.enrich", "enrich")
	bindFlag(rootCmd, "github.wait_rate_limit", "wait-rate-limit")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	f := cmd.PersistentFlags().Lookup(flag)
	if f == nil {
		f = cmd.Flags().Lookup(flag)
	}
	cobra.CheckErr(vConfig.BindPFlag(key, f))
}

// loadConfig reads the optional config file, decodes the configuration and
// builds the logger every command shares.
func loadConfig(cmd *cobra.Command) (config.Config, *log.Logger, error) {
	if configFilePath != "" {
		vConfig.SetConfigFile(configFilePath)
		if err := vConfig.ReadInConfig(); err != nil {
			return config.Config{}, nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		vConfig.Set("logger.level", "debug")
	}

	cfg, err := config.Load(vConfig)
	if err != nil {
		return config.Config{}, nil, err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Logger)
	if err != nil {
		return config.Config{}, nil, err
	}
	if configFilePath != "" {
		logger.Debug("Loaded configuration file", "config", configFilePath)
	}
	return cfg, logger, nil
}

// newLogger creates a logger writing to w at the configured level and format.
func newLogger(w io.Writer, cfg config.LoggerConfig) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	formatter := log.TextFormatter
	switch cfg.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Formatter:       formatter,
	}), nil
}
