package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable the loader reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GITHUB_TOKEN",
		"PROJECTZEN_GITHUB_TOKEN",
		"PROJECTZEN_GITHUB_BASE_URL",
		"PROJECTZEN_GITHUB_PER_PAGE",
		"PROJECTZEN_GITHUB_ENRICH",
		"PROJECTZEN_LOGGER_LEVEL",
		"PROJECTZEN_LOGGER_FORMAT",
		"PROJECTZEN_SERVER_ADDR",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "", cfg.GitHub.Token)
	assert.Equal(t, "https://api.github.com/", cfg.GitHub.BaseURL)
	assert.Equal(t, "https://api.github.com/graphql", cfg.GitHub.GraphQLURL)
	assert.Equal(t, 0, cfg.GitHub.PerPage)
	assert.False(t, cfg.GitHub.Enrich)
	assert.False(t, cfg.GitHub.WaitRateLimit)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROJECTZEN_LOGGER_LEVEL", "debug")
	t.Setenv("PROJECTZEN_LOGGER_FORMAT", "json")
	t.Setenv("PROJECTZEN_GITHUB_PER_PAGE", "50")
	t.Setenv("PROJECTZEN_GITHUB_ENRICH", "true")
	t.Setenv("PROJECTZEN_SERVER_ADDR", ":9090")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, 50, cfg.GitHub.PerPage)
	assert.True(t, cfg.GitHub.Enrich)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoad_Token(t *testing.T) {
	t.Run("falls back to GITHUB_TOKEN", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GITHUB_TOKEN", "ghp_fallback")

		cfg, err := Load(New())
		require.NoError(t, err)
		assert.Equal(t, "ghp_fallback", cfg.GitHub.Token)
	})

	t.Run("prefixed variable wins", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GITHUB_TOKEN", "ghp_fallback")
		t.Setenv("PROJECTZEN_GITHUB_TOKEN", "ghp_primary")

		cfg, err := Load(New())
		require.NoError(t, err)
		assert.Equal(t, "ghp_primary", cfg.GitHub.Token)
	})
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "projectzen.yaml")
	content := `github:
  base_url: https://github.example.com/api/v3/
  per_page: 100
logger:
  level: warn
server:
  allowed_origins:
    - https://dashboard.example.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "https://github.example.com/api/v3/", cfg.GitHub.BaseURL)
	assert.Equal(t, 100, cfg.GitHub.PerPage)
	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.Equal(t, []string{"https://dashboard.example.com"}, cfg.Server.AllowedOrigins)
}

func TestLoad_InvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROJECTZEN_LOGGER_LEVEL", "verbose")

	_, err := Load(New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logger config validation failed")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			GitHub: GitHubConfig{
				BaseURL:    "https://api.github.com/",
				GraphQLURL: "https://api.github.com/graphql",
			},
			Logger: LoggerConfig{Level: "info", Format: "text"},
			Server: ServerConfig{Addr: ":8080"},
		}
	}

	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "relative base url",
			mutate:  func(c *Config) { c.GitHub.BaseURL = "api.github.com" },
			wantErr: "invalid base_url",
		},
		{
			name:    "per page above limit",
			mutate:  func(c *Config) { c.GitHub.PerPage = 101 },
			wantErr: "invalid per_page",
		},
		{
			name:    "negative per page",
			mutate:  func(c *Config) { c.GitHub.PerPage = -1 },
			wantErr: "invalid per_page",
		},
		{
			name: "graphql url checked when enriching",
			mutate: func(c *Config) {
				c.GitHub.Enrich = true
				c.GitHub.GraphQLURL = ""
			},
			wantErr: "invalid graphql_url",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logger.Format = "xml" },
			wantErr: "invalid log format",
		},
		{
			name:    "empty listen address",
			mutate:  func(c *Config) { c.Server.Addr = "" },
			wantErr: "addr must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("graphql url ignored without enrich", func(t *testing.T) {
		cfg := valid()
		cfg.GitHub.GraphQLURL = ""
		assert.NoError(t, cfg.Validate())
	})
}
