package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	apperrors "sjsage522/propertyscraper/pkg/errors"

	"gopkg.in/yaml.v2"
)

// DefaultPath is the configuration file looked up when none is given
const DefaultPath = "scraper_config.json"

// Config represents the application configuration.
// The file may be JSON or YAML; keys are the snake_case names below.
type Config struct {
	// Fetching
	BaseURL              string  `yaml:"base_url"`
	DelayBetweenRequests float64 `yaml:"delay_between_requests"`
	MaxRetries           int     `yaml:"max_retries"`
	TimeoutSeconds       float64 `yaml:"timeout"`
	RetryBackoffUnit     float64 `yaml:"retry_backoff_unit"`
	UserAgent            string  `yaml:"user_agent"`
	RespectRobotsTxt     bool    `yaml:"respect_robots_txt"`
	Workers              int     `yaml:"workers"`

	// Run scope
	DownloadImages    bool     `yaml:"download_images"`
	MaxListingsPerRun int      `yaml:"max_listings_per_run"`
	ListingURLs       []string `yaml:"listing_urls"`
	ArticleURLs       []string `yaml:"article_urls"`
	FixtureFile       string   `yaml:"fixture_file"`

	// Output
	OutputDirectory  string `yaml:"output_directory"`
	ValidateData     bool   `yaml:"validate_data"`
	RemoveDuplicates bool   `yaml:"remove_duplicates"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// Memcache page cache, disabled when empty
	MemcacheAddr string  `yaml:"memcache_addr"`
	PageCacheTTL float64 `yaml:"page_cache_ttl"`

	// Redis stream publisher, disabled when empty
	RedisAddr            string `yaml:"redis_addr"`
	RedisDB              int    `yaml:"redis_db"`
	RedisStream          string `yaml:"redis_stream"`
	RedisStreamMaxLength int    `yaml:"redis_stream_max_length"`

	// Postgres listing sink, disabled when empty
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Default returns the built-in configuration with every key populated
func Default() *Config {
	return &Config{
		BaseURL:              "https://www.buyrentkenya.com",
		DelayBetweenRequests: 1.5,
		MaxRetries:           3,
		TimeoutSeconds:       30,
		RetryBackoffUnit:     1,
		UserAgent:            "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		RespectRobotsTxt:     false,
		Workers:              1,
		DownloadImages:       true,
		MaxListingsPerRun:    100,
		OutputDirectory:      "buyrentkenya_data",
		ValidateData:         true,
		RemoveDuplicates:     true,
		LogLevel:             "info",
		PageCacheTTL:         3600,
		RedisStream:          "property_records",
		RedisStreamMaxLength: 1000,
	}
}

// LoadConfig loads the configuration file at path on top of the defaults and
// then applies environment overrides. A missing file yields the defaults; a
// file that cannot be decoded is a configuration error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, apperrors.NewConfiguration("failed to read "+path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.NewConfiguration("malformed configuration file "+path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides infrastructure settings from environment variables
func (c *Config) applyEnv() {
	c.BaseURL = getEnv("SCRAPER_BASE_URL", c.BaseURL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.MemcacheAddr = getEnv("MEMCACHE_ADDR", c.MemcacheAddr)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.PostgresDSN = getEnv("POSTGRES_DSN", c.PostgresDSN)
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return apperrors.NewConfiguration("base_url must not be empty", nil)
	case c.OutputDirectory == "":
		return apperrors.NewConfiguration("output_directory must not be empty", nil)
	case c.MaxRetries < 1:
		return apperrors.NewConfiguration(fmt.Sprintf("max_retries must be >= 1, got %d", c.MaxRetries), nil)
	case c.DelayBetweenRequests < 0:
		return apperrors.NewConfiguration("delay_between_requests must not be negative", nil)
	case c.TimeoutSeconds <= 0:
		return apperrors.NewConfiguration("timeout must be positive", nil)
	case c.RetryBackoffUnit < 0:
		return apperrors.NewConfiguration("retry_backoff_unit must not be negative", nil)
	case c.Workers < 1:
		return apperrors.NewConfiguration(fmt.Sprintf("workers must be >= 1, got %d", c.Workers), nil)
	case c.MaxListingsPerRun < 0:
		return apperrors.NewConfiguration("max_listings_per_run must not be negative", nil)
	}
	return nil
}

// Delay is the mandatory pause after each successful request
func (c *Config) Delay() time.Duration {
	return seconds(c.DelayBetweenRequests)
}

// Timeout bounds a single request attempt
func (c *Config) Timeout() time.Duration {
	return seconds(c.TimeoutSeconds)
}

// BackoffUnit is multiplied by 2^attempt between failed attempts
func (c *Config) BackoffUnit() time.Duration {
	return seconds(c.RetryBackoffUnit)
}

// CacheTTL is how long fetched pages stay in the page cache
func (c *Config) CacheTTL() time.Duration {
	return seconds(c.PageCacheTTL)
}

// JSONDir is where per-category and aggregate files are written
func (c *Config) JSONDir() string {
	return filepath.Join(c.OutputDirectory, "json")
}

// ImagesDir is where downloaded listing images are written
func (c *Config) ImagesDir() string {
	return filepath.Join(c.OutputDirectory, "images")
}

// LogFilePath returns the configured log file or the default inside the output directory
func (c *Config) LogFilePath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.OutputDirectory, "scraper.log")
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		n, err := strconv.Atoi(value)
		if err == nil {
			return n
		}
	}
	return defaultValue
}
