package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://api.vk.com/method/", cfg.VK.Endpoint)
	assert.Equal(t, "5.154", cfg.VK.APIVersion)
	assert.Equal(t, "api_errors.yaml", cfg.VK.ErrorTable)
	assert.Equal(t, 0.09, cfg.Retry.BackoffFactor)
	assert.Equal(t, 0, cfg.Retry.MaxAttempts)
	assert.Equal(t, 3, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
vk:
  endpoint: https://vk.example.test/method/
  access_token: token-from-file
  api_version: "5.199"
retry:
  backoff_factor: 0.5
  max_attempts: 7
rate_limit:
  requests_per_second: 1
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "https://vk.example.test/method/", cfg.VK.Endpoint)
	assert.Equal(t, "token-from-file", cfg.VK.AccessToken)
	assert.Equal(t, "5.199", cfg.VK.APIVersion)
	assert.Equal(t, 0.5, cfg.Retry.BackoffFactor)
	assert.Equal(t, 7, cfg.Retry.MaxAttempts)
	assert.Equal(t, 1, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, "api_errors.yaml", cfg.VK.ErrorTable)
}

func TestLoadFromFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vk: [broken"), 0644))

	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(path))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VKSCRAPER_ACCESS_TOKEN", "env-token")
	t.Setenv("VKSCRAPER_ENDPOINT", "https://env.example.test/method/")
	t.Setenv("VKSCRAPER_BACKOFF_FACTOR", "0.25")
	t.Setenv("VKSCRAPER_MAX_ATTEMPTS", "5")
	t.Setenv("VKSCRAPER_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	assert.Equal(t, "env-token", cfg.VK.AccessToken)
	assert.Equal(t, "https://env.example.test/method/", cfg.VK.Endpoint)
	assert.Equal(t, 0.25, cfg.Retry.BackoffFactor)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFromEnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("VKSCRAPER_BACKOFF_FACTOR", "not-a-number")
	t.Setenv("VKSCRAPER_MAX_ATTEMPTS", "-3")

	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	assert.Equal(t, 0.09, cfg.Retry.BackoffFactor)
	assert.Equal(t, 0, cfg.Retry.MaxAttempts)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing endpoint", func(c *Config) { c.VK.Endpoint = "" }, "endpoint is required"},
		{"relative endpoint", func(c *Config) { c.VK.Endpoint = "api.vk.com/method" }, "absolute URL"},
		{"missing api version", func(c *Config) { c.VK.APIVersion = "" }, "API version is required"},
		{"missing error table", func(c *Config) { c.VK.ErrorTable = "" }, "error table path is required"},
		{"zero backoff factor", func(c *Config) { c.Retry.BackoffFactor = 0 }, "backoff factor must be positive"},
		{"negative max attempts", func(c *Config) { c.Retry.MaxAttempts = -1 }, "max attempts cannot be negative"},
		{"negative rate limit", func(c *Config) { c.RateLimit.RequestsPerSecond = -1 }, "requests per second cannot be negative"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
