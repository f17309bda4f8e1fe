// Package config provides application configuration loaded from YAML files
// and environment variables via Viper. This is deployment configuration
// (addresses, credentials, timeouts); crawl behavior lives in the
// database-backed domain.CrawlerConfig.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/MrHbogart/NousNews-Backend/internal/logger"
)

// Timeout defaults, overridable via CRAWLER_FETCH_TIMEOUT_SECONDS and
// CRAWLER_LLM_TIMEOUT_SECONDS.
const (
	DefaultFetchTimeout = 20 * time.Second
	DefaultLLMTimeout   = 45 * time.Second
)

// Server defaults.
const (
	defaultServerAddress      = ":8080"
	defaultServerReadTimeout  = 15 * time.Second
	defaultServerWriteTimeout = 15 * time.Second
	defaultServerIdleTimeout  = 60 * time.Second
)

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `mapstructure:"address"       yaml:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"  yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"  yaml:"idle_timeout"`
	// APIToken protects the crawler admin endpoints. Empty disables auth.
	APIToken string `mapstructure:"api_token" yaml:"api_token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"     yaml:"host"`
	Port     string `mapstructure:"port"     yaml:"port"`
	User     string `mapstructure:"user"     yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	DBName   string `mapstructure:"dbname"   yaml:"dbname"`
	SSLMode  string `mapstructure:"sslmode"  yaml:"sslmode"`
}

// CrawlerConfig holds process-level crawler settings.
type CrawlerConfig struct {
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
	LLMTimeout   time.Duration `mapstructure:"llm_timeout"   yaml:"llm_timeout"`
	// Schedule is an optional cron expression that triggers a run.
	Schedule string `mapstructure:"schedule" yaml:"schedule"`
}

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"  yaml:"crawler"`
	Logger   logger.Config  `mapstructure:"logger"   yaml:"logger"`
}

// Load reads configuration from the optional config file and the
// environment. A missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)
	_ = v.ReadInConfig()

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment variables: %w", err)
	}

	cfg := &Config{}
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	applyTimeoutEnvOverrides(v, cfg)

	return cfg, nil
}

// setDefaults sets production-safe default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server", map[string]any{
		"address":       defaultServerAddress,
		"read_timeout":  defaultServerReadTimeout.String(),
		"write_timeout": defaultServerWriteTimeout.String(),
		"idle_timeout":  defaultServerIdleTimeout.String(),
	})

	v.SetDefault("database", map[string]any{
		"host":    "localhost",
		"port":    "5432",
		"user":    "postgres",
		"dbname":  "nousnews",
		"sslmode": "disable",
	})

	v.SetDefault("crawler", map[string]any{
		"fetch_timeout": DefaultFetchTimeout.String(),
		"llm_timeout":   DefaultLLMTimeout.String(),
	})

	v.SetDefault("logger", map[string]any{
		"level":       "info",
		"development": false,
		"encoding":    "json",
	})
}

// bindEnvVars binds well-known environment variables to config keys.
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"server.api_token":  "CRAWLER_API_TOKEN",
		"database.host":     "DATABASE_HOST",
		"database.port":     "DATABASE_PORT",
		"database.user":     "DATABASE_USER",
		"database.password": "DATABASE_PASSWORD",
		"database.dbname":   "DATABASE_NAME",
		"database.sslmode":  "DATABASE_SSLMODE",
		"crawler.schedule":  "CRAWLER_SCHEDULE",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", env, err)
		}
	}
	return nil
}

// applyTimeoutEnvOverrides honors the second-granularity timeout variables
// the crawler has always used.
func applyTimeoutEnvOverrides(v *viper.Viper, cfg *Config) {
	if secs := v.GetInt("CRAWLER_FETCH_TIMEOUT_SECONDS"); secs > 0 {
		cfg.Crawler.FetchTimeout = time.Duration(secs) * time.Second
	}
	if secs := v.GetInt("CRAWLER_LLM_TIMEOUT_SECONDS"); secs > 0 {
		cfg.Crawler.LLMTimeout = time.Duration(secs) * time.Second
	}
}
