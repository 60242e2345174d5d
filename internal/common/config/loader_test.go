// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  environment: test
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.usaspending.gov", cfg.API.BaseURL)
	assert.Equal(t, 60.0, cfg.RateLimit.Capacity)
	assert.Equal(t, 1.0, cfg.RateLimit.RefillPerSecond)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500, cfg.Retry.BaseDelay)
	assert.Equal(t, 8000, cfg.Retry.MaxDelay)
}

func TestLoadFromFile_ExplicitValuesWin(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://example.test
  timeout: 1000
rate_limit:
  capacity: 10
  refill_per_second: 2
retry:
  max_attempts: 5
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.test", cfg.API.BaseURL)
	assert.Equal(t, 1000, cfg.API.Timeout)
	assert.Equal(t, 10.0, cfg.RateLimit.Capacity)
	assert.Equal(t, 2.0, cfg.RateLimit.RefillPerSecond)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
}

func TestLoadFromFile_InvalidValuesRejected(t *testing.T) {
	path := writeConfig(t, `
rate_limit:
  capacity: -5
`)

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestGetToolConfig(t *testing.T) {
	cfg := &Config{Tools: map[string]ToolConfig{
		"search-awards": {Enabled: false, Timeout: 1000},
	}}

	tc := GetToolConfig(cfg, "search-awards")
	assert.False(t, tc.Enabled)
	assert.Equal(t, 1000, tc.Timeout)

	// Unconfigured tools default to enabled.
	tc = GetToolConfig(cfg, "unlisted")
	assert.True(t, tc.Enabled)
	assert.Equal(t, 30000, tc.Timeout)

	assert.False(t, IsToolEnabled(cfg, "search-awards"))
	assert.True(t, IsToolEnabled(cfg, "unlisted"))
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
