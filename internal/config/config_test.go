package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/concierge/internal/common"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvLLMAPIKey, "")
	t.Setenv(EnvSearchAPIKey, "")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.NotContains(t, cfg.Database.Path, "~")
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, 5, cfg.Search.ResultsPerQuery)
	assert.Equal(t, 24*time.Hour, cfg.Discovery.CacheTTL)
	assert.Equal(t, 256, cfg.Discovery.MemoryCacheSize)
	assert.Equal(t, 10*time.Minute, cfg.Compliance.StaleAfter)
	assert.Empty(t, cfg.LLM.APIKey, "a missing model key is not a config error")
}

func TestLoad_EnvironmentFallback(t *testing.T) {
	t.Setenv(EnvLLMAPIKey, "llm-from-env")
	t.Setenv(EnvSearchAPIKey, "search-from-env")
	t.Setenv(EnvInviteAPIKey, "invite-from-env")
	t.Setenv(EnvDatabaseURL, "postgres://u:p@localhost/concierge")

	v := viper.New()
	v.Set("llm.api_key", "llm-from-config")
	v.Set("database.driver", "postgres")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "llm-from-config", cfg.LLM.APIKey)
	assert.Equal(t, "search-from-env", cfg.Search.APIKey)
	assert.Equal(t, "invite-from-env", cfg.Outreach.APIKey)
	assert.Equal(t, "postgres://u:p@localhost/concierge", cfg.Database.DSN)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")

	tests := []struct {
		name string
		key  string
		val  any
		want error
	}{
		{"bad port", "server.port", 70000, common.ErrInvalidConfig},
		{"bad level", "logging.level", "loud", common.ErrInvalidConfig},
		{"bad format", "logging.format", "xml", common.ErrInvalidConfig},
		{"bad driver", "database.driver", "mysql", common.ErrInvalidConfig},
		{"postgres without dsn", "database.driver", "postgres", common.ErrMissingConfig},
		{"bad provider", "llm.provider", "cohere", common.ErrInvalidConfig},
		{"bad results per query", "search.results_per_query", 0, common.ErrInvalidConfig},
		{"bad cache ttl", "discovery.cache_ttl", "-1h", common.ErrInvalidConfig},
		{"zero stale window", "compliance.stale_after", "0s", common.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)
			_, err := Load(v)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
llm:
  provider: anthropic
  model: claude-3-5-haiku-latest
discovery:
  cache_ttl: 2h
compliance:
  stale_after: 30m
`), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.LLM.Model)
	assert.Equal(t, 2*time.Hour, cfg.Discovery.CacheTTL)
	assert.Equal(t, 30*time.Minute, cfg.Compliance.StaleAfter)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("CONCIERGE_TEST_DIR", "/srv/data")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "db", "c.db"), ExpandPath("~/db/c.db"))
	assert.Equal(t, "/srv/data/c.db", ExpandPath("$CONCIERGE_TEST_DIR/c.db"))
	assert.Equal(t, "/abs/c.db", ExpandPath("/abs/c.db"))
}

func TestDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, "/xdg/concierge", Dir())
}
