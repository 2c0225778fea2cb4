package config

import (
	"github.com/pelagos-labs/route-engine/internal/common"
)

// HistoryConfig points at the external history/positions REST service.
// An empty base URL disables recording; reads return empty results.
type HistoryConfig struct {
	BaseURL    string
	TimeoutSec int
}

func (c *HistoryConfig) Key() string {
	return HISTORY_CONFIG_KEY
}

func (c *HistoryConfig) Load() error {
	c.BaseURL = common.GetEnvOrDefault("HISTORY_BASE_URL", "")
	c.TimeoutSec = common.GetEnvOrDefaultInt("HISTORY_TIMEOUT_SEC", 10)
	return nil
}

func (c *HistoryConfig) Validate() error {
	return nil
}
