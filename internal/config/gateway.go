package config

import (
	"errors"

	"github.com/pelagos-labs/route-engine/internal/common"
)

// GatewayConfig bounds the chain request gateway.
type GatewayConfig struct {
	// MaxConcurrent is the ceiling on in-flight chain reads. Default: 2
	MaxConcurrent int

	// MinIntervalMs is the minimum spacing between dispatches. Default: 750
	MinIntervalMs int

	// FailureThreshold is the consecutive-failure count that opens the
	// circuit breaker. Default: 5
	FailureThreshold int

	// CoolDownMs is how long the breaker stays open. Default: 5000
	CoolDownMs int
}

func (c *GatewayConfig) Key() string {
	return GATEWAY_CONFIG_KEY
}

func (c *GatewayConfig) Load() error {
	c.MaxConcurrent = common.GetEnvOrDefaultInt("GATEWAY_MAX_CONCURRENT", 2)
	c.MinIntervalMs = common.GetEnvOrDefaultInt("GATEWAY_MIN_INTERVAL_MS", 750)
	c.FailureThreshold = common.GetEnvOrDefaultInt("GATEWAY_FAILURE_THRESHOLD", 5)
	c.CoolDownMs = common.GetEnvOrDefaultInt("GATEWAY_COOLDOWN_MS", 5000)
	return nil
}

func (c *GatewayConfig) Validate() error {
	if c.MaxConcurrent <= 0 || c.FailureThreshold <= 0 {
		return errors.New("invalid gateway config")
	}
	return nil
}
