// internal/tools/search-regulations/config.go
package searchregulations

import (
	"time"

	commonconfig "spendquery/internal/common/config"
)

const ToolName = "search-regulations"

// defaultLimit bounds results when the request names no limit.
const defaultLimit = 10

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
