// Package config holds the application configuration and loads it through viper.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable viper reads,
// e.g. PROJECTZEN_GITHUB_TOKEN.
const EnvPrefix = "PROJECTZEN"

// Config holds application configuration.
type Config struct {
	// GitHub configures the repository data provider.
	GitHub GitHubConfig `mapstructure:"github"`
	// Logger configures logging.
	Logger LoggerConfig `mapstructure:"logger"`
	// Server configures the HTTP adapter started by "serve".
	Server ServerConfig `mapstructure:"server"`
}

// GitHubConfig configures how repository data is fetched.
type GitHubConfig struct {
	// Token authenticates requests. Empty means unauthenticated.
	Token string `mapstructure:"token"`
	// BaseURL is the REST API root.
	BaseURL string `mapstructure:"base_url"`
	// GraphQLURL is the GraphQL endpoint used when Enrich is set.
	GraphQLURL string `mapstructure:"graphql_url"`
	// PerPage is the page size for the pull request and contributor lists.
	// Zero keeps the provider's default.
	PerPage int `mapstructure:"per_page"`
	// Enrich fills commit and release counts through GraphQL when the REST payload lacks them.
	Enrich bool `mapstructure:"enrich"`
	// WaitRateLimit sleeps through secondary rate limits instead of failing.
	WaitRateLimit bool `mapstructure:"wait_rate_limit"`
}

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	// Level is the logging level (debug, info, warn, error).
	Level string `mapstructure:"level"`
	// Format is the output format (text, json, logfmt).
	Format string `mapstructure:"format"`
}

// ServerConfig holds HTTP adapter configuration.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `mapstructure:"addr"`
	// AllowedOrigins is the CORS origin allow-list.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("github.token", "")
	v.SetDefault("github.base_url", "https://api.github.com/")
	v.SetDefault("github.graphql_url", "https://api.github.com/graphql")
	v.SetDefault("github.per_page", 0)
	v.SetDefault("github.enrich", false)
	v.SetDefault("github.wait_rate_limit", false)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
}

// New returns a viper instance reading PROJECTZEN_* variables, with defaults applied.
// GITHUB_TOKEN is honoured when PROJECTZEN_GITHUB_TOKEN is unset.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	_ = v.BindEnv("github.token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN")
	return v
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates all configuration.
func (c Config) Validate() error {
	if err := c.GitHub.Validate(); err != nil {
		return fmt.Errorf("github config validation failed: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger config validation failed: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	return nil
}

// Validate validates provider configuration.
func (c GitHubConfig) Validate() error {
	if _, err := parseAbsoluteURL(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if c.Enrich {
		if _, err := parseAbsoluteURL(c.GraphQLURL); err != nil {
			return fmt.Errorf("invalid graphql_url: %w", err)
		}
	}
	if c.PerPage < 0 || c.PerPage > 100 {
		return fmt.Errorf("invalid per_page: %d (must be between 0 and 100)", c.PerPage)
	}
	return nil
}

// Validate validates logger configuration.
func (c LoggerConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s (must be: debug, info, warn, error)", c.Level)
	}

	validFormats := map[string]bool{
		"text":   true,
		"json":   true,
		"logfmt": true,
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid log format: %s (must be: text, json, logfmt)", c.Format)
	}
	return nil
}

// Validate validates HTTP adapter configuration.
func (c ServerConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	return nil
}

func parseAbsoluteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute URL", raw)
	}
	return u, nil
}
