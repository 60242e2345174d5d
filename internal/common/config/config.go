// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig             `mapstructure:"app"`
	API       APIConfig             `mapstructure:"api"`
	RateLimit RateLimitConfig       `mapstructure:"rate_limit"`
	Retry     RetryConfig           `mapstructure:"retry"`
	Redis     RedisConfig           `mapstructure:"redis"`
	Corpus    CorpusConfig          `mapstructure:"corpus"`
	Tools     map[string]ToolConfig `mapstructure:"tools"`
	Registry  RegistryConfig        `mapstructure:"registry"`
	Server    ServerConfig          `mapstructure:"server"`
	Logging   LoggingConfig         `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// APIConfig holds settings for the upstream spending API.
type APIConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
	UserAgent string `mapstructure:"user_agent"`
	PageLimit int    `mapstructure:"page_limit"`
}

// RateLimitConfig holds the token-bucket settings shared by all outbound
// requests against the spending API.
type RateLimitConfig struct {
	Capacity        float64 `mapstructure:"capacity"`
	RefillPerSecond float64 `mapstructure:"refill_per_second"`
}

// RetryConfig holds the backoff policy for outbound attempts.
type RetryConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
	BaseDelay   int `mapstructure:"base_delay"` // milliseconds
	MaxDelay    int `mapstructure:"max_delay"`  // milliseconds
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TurnTTL  int    `mapstructure:"turn_ttl"` // milliseconds
}

// CorpusConfig locates the regulatory-text corpus file.
type CorpusConfig struct {
	Path string `mapstructure:"path"`
}

// RegistryConfig locates the tool registry file.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// ToolConfig holds the core settings applicable to every tool handler.
type ToolConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Timeout int  `mapstructure:"timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Validate checks critical configuration fields.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.RateLimit.Capacity <= 0 {
		return fmt.Errorf("rate_limit.capacity must be positive")
	}
	if c.RateLimit.RefillPerSecond <= 0 {
		return fmt.Errorf("rate_limit.refill_per_second must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1")
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return fmt.Errorf("redis.address is required when redis is enabled")
	}
	return nil
}
