package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the VK scraper.
type Config struct {
	// VK API connection settings
	VK VKConfig `yaml:"vk" json:"vk"`

	// Retry policy settings
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Request throttling
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// VKConfig holds VK API specific configuration.
type VKConfig struct {
	Endpoint    string `yaml:"endpoint" json:"endpoint"`
	AccessToken string `yaml:"access_token" json:"access_token"`
	APIVersion  string `yaml:"api_version" json:"api_version"`
	ErrorTable  string `yaml:"error_table" json:"error_table"`
}

// RetryConfig holds the retry policy knobs.
type RetryConfig struct {
	// BackoffFactor is the base multiplier in seconds; the delay before the
	// nth retry is BackoffFactor * 2^n.
	BackoffFactor float64 `yaml:"backoff_factor" json:"backoff_factor"`
	// MaxAttempts bounds the number of retries; 0 means unlimited, matching
	// the historical behavior of the retry loop.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
}

// RateLimitConfig holds request throttling configuration. VK rejects more
// than a few requests per second per token, so the client throttles
// proactively instead of burning retries on flood-control errors.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second" json:"requests_per_second"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		VK: VKConfig{
			Endpoint:   "https://api.vk.com/method/",
			APIVersion: "5.154",
			ErrorTable: "api_errors.yaml",
		},
		Retry: RetryConfig{
			BackoffFactor: 0.09,
			MaxAttempts:   0,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 3,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file,
// then environment overrides (a .env file is honored if present), then
// validation.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(path); err != nil {
		return nil, err
	}
	cfg.LoadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file. An empty path falls
// back to the standard locations; finding no file there is not an error.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations.
func (c *Config) findConfigFile() string {
	locations := []string{
		".vkscraper.yaml",
		".vkscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "vkscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".vkscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// LoadFromEnv applies VKSCRAPER_* environment variable overrides.
func (c *Config) LoadFromEnv() {
	if endpoint := os.Getenv("VKSCRAPER_ENDPOINT"); endpoint != "" {
		c.VK.Endpoint = endpoint
	}
	if token := os.Getenv("VKSCRAPER_ACCESS_TOKEN"); token != "" {
		c.VK.AccessToken = token
	}
	if version := os.Getenv("VKSCRAPER_API_VERSION"); version != "" {
		c.VK.APIVersion = version
	}
	if table := os.Getenv("VKSCRAPER_ERROR_TABLE"); table != "" {
		c.VK.ErrorTable = table
	}
	if factor := os.Getenv("VKSCRAPER_BACKOFF_FACTOR"); factor != "" {
		if val, err := strconv.ParseFloat(factor, 64); err == nil && val > 0 {
			c.Retry.BackoffFactor = val
		}
	}
	if attempts := os.Getenv("VKSCRAPER_MAX_ATTEMPTS"); attempts != "" {
		if val, err := strconv.Atoi(attempts); err == nil && val >= 0 {
			c.Retry.MaxAttempts = val
		}
	}
	if level := os.Getenv("VKSCRAPER_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.VK.Endpoint == "" {
		errs = append(errs, errors.New("VK endpoint is required"))
	} else if u, err := url.Parse(c.VK.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, errors.New("VK endpoint must be an absolute URL"))
	}
	if c.VK.APIVersion == "" {
		errs = append(errs, errors.New("VK API version is required"))
	}
	if c.VK.ErrorTable == "" {
		errs = append(errs, errors.New("error table path is required"))
	}

	if c.Retry.BackoffFactor <= 0 {
		errs = append(errs, errors.New("backoff factor must be positive"))
	}
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max attempts cannot be negative"))
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("requests per second cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
