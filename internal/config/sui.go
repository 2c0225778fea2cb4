package config

import (
	"errors"
	"fmt"
	"os"
)

// SuiConfig holds the fullnode endpoint and the on-chain identifiers of the
// DEX package. A missing identifier is a fatal configuration error: no
// discovery or routing can work without it, so Validate fails hard instead
// of letting callers retry.
type SuiConfig struct {
	// RPCUrl is the Sui fullnode JSON-RPC endpoint.
	RPCUrl string

	// DexPackageID is the published package containing the pair module.
	DexPackageID string

	// FactoryObjectID is the shared factory object that indexes pairs.
	FactoryObjectID string
}

func (c *SuiConfig) Key() string {
	return SUI_CONFIG_KEY
}

func (c *SuiConfig) Load() error {
	c.RPCUrl = os.Getenv("SUI_RPC_URL")
	c.DexPackageID = os.Getenv("DEX_PACKAGE_ID")
	c.FactoryObjectID = os.Getenv("DEX_FACTORY_OBJECT_ID")
	return nil
}

func (c *SuiConfig) Validate() error {
	if c.RPCUrl == "" {
		return errors.New("SUI_RPC_URL is required")
	}
	if c.DexPackageID == "" {
		return errors.New("DEX_PACKAGE_ID is required")
	}
	if c.FactoryObjectID == "" {
		return errors.New("DEX_FACTORY_OBJECT_ID is required")
	}
	return nil
}

// PairCreatedEventType is the Move event type scanned during pair discovery.
func (c *SuiConfig) PairCreatedEventType() string {
	return fmt.Sprintf("%s::pair::PairCreated", c.DexPackageID)
}
