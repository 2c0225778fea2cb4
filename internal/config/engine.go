package config

import (
	"github.com/pelagos-labs/route-engine/internal/common"
)

// EngineConfig holds pair-cache and route-cache tuning.
type EngineConfig struct {
	// DBPath is the BoltDB file backing the warm pair cache.
	// Default: "./data/route-engine.db"
	DBPath string

	// PersistenceEnabled controls whether pairs are persisted to disk.
	// Default: true
	PersistenceEnabled bool

	// PersistIntervalSec is how often pairs are batch-saved. Default: 30
	PersistIntervalSec int

	// PairStaleSec is the in-memory reserve staleness TTL. Default: 60
	PairStaleSec int

	// WarmCacheStaleSec is the persisted-cache TTL; an older warm cache is
	// ignored and a fresh discovery scan runs. Default: 300
	WarmCacheStaleSec int

	// RouteCacheTTLSec is the computed-route cache TTL. Default: 30
	RouteCacheTTLSec int

	// MaxEventScan caps how many pair-creation events one discovery reads.
	// Default: 500
	MaxEventScan int
}

func (c *EngineConfig) Key() string {
	return ENGINE_CONFIG_KEY
}

func (c *EngineConfig) Load() error {
	c.DBPath = common.GetEnvOrDefault("ENGINE_DB_PATH", "./data/route-engine.db")
	c.PersistenceEnabled = common.GetEnvOrDefault("ENGINE_PERSISTENCE_ENABLED", "true") == "true"
	c.PersistIntervalSec = common.GetEnvOrDefaultInt("ENGINE_PERSIST_INTERVAL", 30)
	c.PairStaleSec = common.GetEnvOrDefaultInt("ENGINE_PAIR_STALE_SEC", 60)
	c.WarmCacheStaleSec = common.GetEnvOrDefaultInt("ENGINE_WARM_CACHE_STALE_SEC", 300)
	c.RouteCacheTTLSec = common.GetEnvOrDefaultInt("ENGINE_ROUTE_CACHE_TTL_SEC", 30)
	c.MaxEventScan = common.GetEnvOrDefaultInt("ENGINE_MAX_EVENT_SCAN", 500)
	return nil
}

func (c *EngineConfig) Validate() error {
	return nil
}
