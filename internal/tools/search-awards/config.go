// internal/tools/search-awards/config.go
package searchawards

import (
	"time"

	commonconfig "spendquery/internal/common/config"
)

const ToolName = "search-awards"

type Config struct {
	Enabled bool
	Timeout time.Duration
}

func LoadConfig(cfg *commonconfig.Config) *Config {
	tc := commonconfig.GetToolConfig(cfg, ToolName)
	return &Config{
		Enabled: tc.Enabled,
		Timeout: time.Duration(tc.Timeout) * time.Millisecond,
	}
}
