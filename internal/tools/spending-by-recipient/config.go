// internal/tools/spending-by-recipient/config.go
package spendingbyrecipient

import (
	"time"

	commonconfig "spendquery/internal/common/config"
)

const ToolName = "spending-by-recipient"

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
