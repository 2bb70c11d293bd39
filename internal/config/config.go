package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendFile  = "file"
	BackendRedis = "redis"

	minAPIKeyLength = 10
)

// Config holds all configuration for orcatalog.
type Config struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      int           `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	CacheTTL     int           `mapstructure:"cache_ttl"`
	CacheDir     string        `mapstructure:"cache_dir"`
	CacheBackend string        `mapstructure:"cache_backend"`
	RedisURL     string        `mapstructure:"redis_url"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	AppName      string        `mapstructure:"app_name"`
	AppURL       string        `mapstructure:"app_url"`
	LogLevel     string        `mapstructure:"log_level"`
	LogFile      string        `mapstructure:"log_file"`
	Publish      PublishConfig `mapstructure:"publish"`
	GitHub       GitHubConfig  `mapstructure:"github"`
}

// PublishConfig controls committing rendered catalogs into a git repository.
type PublishConfig struct {
	RepoPath    string `mapstructure:"repo_path"`
	Path        string `mapstructure:"path"`
	AuthorName  string `mapstructure:"author_name"`
	AuthorEmail string `mapstructure:"author_email"`
}

// GitHubConfig holds GitHub-related settings.
type GitHubConfig struct {
	Token      string `mapstructure:"token"`
	Owner      string `mapstructure:"owner"`
	Repo       string `mapstructure:"repo"`
	BaseBranch string `mapstructure:"base_branch"`
}

// Load reads configuration from defaults, a .env file, the config file and
// the environment, in increasing order of precedence.
func Load(cfgFile string) (*Config, error) {
	// A missing .env is normal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()

	// Defaults
	v.SetDefault("base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("timeout", 30)
	v.SetDefault("max_retries", 3)
	v.SetDefault("cache_ttl", 3600)
	v.SetDefault("cache_dir", defaultCacheDir())
	v.SetDefault("cache_backend", BackendFile)
	v.SetDefault("rate_limit", 5.0)
	v.SetDefault("app_name", "orcatalog")
	v.SetDefault("app_url", "https://github.com/everstacklabs/orcatalog")
	v.SetDefault("log_level", "info")
	v.SetDefault("publish.path", "catalog/or_models.json")
	v.SetDefault("publish.author_name", "orcatalog")
	v.SetDefault("publish.author_email", "orcatalog@users.noreply.github.com")
	v.SetDefault("github.base_branch", "main")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/orcatalog")
	}

	// Environment variables
	v.SetEnvPrefix("OPENROUTER")
	v.AutomaticEnv()

	_ = v.BindEnv("api_key", "OPENROUTER_API_KEY")
	_ = v.BindEnv("base_url", "OPENROUTER_API_BASE")
	_ = v.BindEnv("cache_backend", "OPENROUTER_CACHE_BACKEND")
	_ = v.BindEnv("redis_url", "OPENROUTER_REDIS_URL", "REDIS_URL")
	_ = v.BindEnv("log_level", "OPENROUTER_LOG_LEVEL")
	_ = v.BindEnv("log_file", "OPENROUTER_LOG_FILE")
	_ = v.BindEnv("github.token", "GITHUB_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks settings shared by every command.
func (c *Config) Validate() error {
	var errs []error
	if c.Timeout < 1 {
		errs = append(errs, fmt.Errorf("timeout must be at least 1 second, got %d", c.Timeout))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries cannot be negative, got %d", c.MaxRetries))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("cache_ttl cannot be negative, got %d", c.CacheTTL))
	}
	switch c.CacheBackend {
	case BackendFile:
	case BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("cache_backend redis requires redis_url"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache_backend %q (want file or redis)", c.CacheBackend))
	}
	return errors.Join(errs...)
}

// ValidateFetch additionally checks the API credentials needed to call the
// listing API.
func (c *Config) ValidateFetch() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, errors.New("OPENROUTER_API_KEY is required"))
	} else if len(c.APIKey) < minAPIKeyLength {
		errs = append(errs, errors.New("OPENROUTER_API_KEY appears to be invalid (too short)"))
	}
	if err := c.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TimeoutDuration returns the request timeout.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// CacheTTLDuration returns the cache lifetime.
func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "orcatalog-cache")
	}
	return filepath.Join(home, ".cache", "orcatalog")
}
