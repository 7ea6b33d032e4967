package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/concierge/internal/common"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Config is the typed configuration of the service.
type Config struct {
	Logging    LoggingConfig
	Database   DatabaseConfig
	LLM        LLMConfig
	Search     SearchConfig
	Outreach   OutreachConfig
	Server     ServerConfig
	Discovery  DiscoveryConfig
	Compliance ComplianceConfig
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	Port            int
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  string
	Format string
}

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	Driver string
	Path   string
	DSN    string
}

// LLMConfig configures the language model gateway.
type LLMConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	RetryDelay  time.Duration
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
	MaxRetries  int
	RateLimit   int
}

// SearchConfig configures the web search API.
type SearchConfig struct {
	APIKey          string
	BaseURL         string
	Timeout         time.Duration
	ResultsPerQuery int
}

// OutreachConfig configures the partner invite endpoint.
type OutreachConfig struct {
	InviteURL string
	APIKey    string
}

// DiscoveryConfig tunes the discovery cache.
type DiscoveryConfig struct {
	CacheTTL        time.Duration
	MemoryCacheSize int
}

// ComplianceConfig tunes the compliance checker.
type ComplianceConfig struct {
	// StaleAfter is how long an in_progress verification may go without an
	// update before another check may reclaim it.
	StaleAfter time.Duration
}

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Environment variables consulted when the corresponding key is unset.
const (
	EnvLLMAPIKey    = "LLM_API_KEY"
	EnvSearchAPIKey = "FIRECRAWL_API_KEY"
	EnvInviteAPIKey = "INVITE_API_KEY"
	EnvDatabaseURL  = "DATABASE_URL"
)

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "~/.local/share/concierge/concierge.db")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.rate_limit", 60)

	v.SetDefault("search.base_url", "https://api.firecrawl.dev")
	v.SetDefault("search.results_per_query", 5)
	v.SetDefault("search.timeout", 30*time.Second)

	v.SetDefault("discovery.cache_ttl", 24*time.Hour)
	v.SetDefault("discovery.memory_cache_size", 256)

	v.SetDefault("compliance.stale_after", 10*time.Minute)
}

// Load reads a validated Config from v. Secrets fall back to their
// well-known environment variables when the keys are unset.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			IdleTimeout:     v.GetDuration("server.idle_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("database.driver")),
			Path:   ExpandPath(v.GetString("database.path")),
			DSN:    v.GetString("database.dsn"),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			APIKey:      v.GetString("llm.api_key"),
			BaseURL:     v.GetString("llm.base_url"),
			Model:       v.GetString("llm.model"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
			MaxRetries:  v.GetInt("llm.max_retries"),
			RetryDelay:  v.GetDuration("llm.retry_delay"),
			Timeout:     v.GetDuration("llm.timeout"),
			RateLimit:   v.GetInt("llm.rate_limit"),
		},
		Search: SearchConfig{
			APIKey:          v.GetString("search.api_key"),
			BaseURL:         v.GetString("search.base_url"),
			ResultsPerQuery: v.GetInt("search.results_per_query"),
			Timeout:         v.GetDuration("search.timeout"),
		},
		Outreach: OutreachConfig{
			InviteURL: v.GetString("outreach.invite_url"),
			APIKey:    v.GetString("outreach.api_key"),
		},
		Discovery: DiscoveryConfig{
			CacheTTL:        v.GetDuration("discovery.cache_ttl"),
			MemoryCacheSize: v.GetInt("discovery.memory_cache_size"),
		},
		Compliance: ComplianceConfig{
			StaleAfter: v.GetDuration("compliance.stale_after"),
		},
	}

	// Override with direct environment variables if not set
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(EnvLLMAPIKey)
	}
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = os.Getenv(EnvSearchAPIKey)
	}
	if cfg.Outreach.APIKey == "" {
		cfg.Outreach.APIKey = os.Getenv(EnvInviteAPIKey)
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = os.Getenv(EnvDatabaseURL)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enums and ranges.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", common.ErrInvalidConfig, c.Server.Port)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", common.ErrInvalidConfig, err)
	}
	switch c.Logging.Format {
	case "console", "text", "json":
	default:
		return fmt.Errorf("%w: logging.format %q (console, json)", common.ErrInvalidConfig, c.Logging.Format)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("%w: database.dsn (or %s)", common.ErrMissingConfig, EnvDatabaseURL)
		}
	default:
		return fmt.Errorf("%w: database.driver %q (sqlite, postgres)", common.ErrInvalidConfig, c.Database.Driver)
	}

	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("%w: llm.provider %q (openai, anthropic)", common.ErrInvalidConfig, c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("%w: llm.temperature %v out of range", common.ErrInvalidConfig, c.LLM.Temperature)
	}
	if c.Search.ResultsPerQuery <= 0 {
		return fmt.Errorf("%w: search.results_per_query must be positive", common.ErrInvalidConfig)
	}
	if c.Discovery.CacheTTL <= 0 {
		return fmt.Errorf("%w: discovery.cache_ttl must be positive", common.ErrInvalidConfig)
	}
	if c.Compliance.StaleAfter <= 0 {
		return fmt.Errorf("%w: compliance.stale_after must be positive", common.ErrInvalidConfig)
	}
	return nil
}

// Addr returns the listen address of the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
