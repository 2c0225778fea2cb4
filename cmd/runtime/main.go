package main

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/pelagos-labs/route-engine/internal/aggregator"
	"github.com/pelagos-labs/route-engine/internal/common"
	"github.com/pelagos-labs/route-engine/internal/config"
	"github.com/pelagos-labs/route-engine/internal/gateway"
	"github.com/pelagos-labs/route-engine/internal/http"
	"github.com/pelagos-labs/route-engine/internal/market"
)

// @title Pelagos Route Engine API
// @version 1.0-beta
// @description Sui DEX routing API: direct and two-hop constant-product quotes with price impact analysis.
// @description
// @description ## - Features
// @description - **Smart Routing**: Direct routes first, then up to three multi-hop candidates
// @description - **Price Impact Analysis**: Per-hop impact summed across the route with severity warnings
// @description - **Reserve Cache**: Pair reserves refreshed on demand, persisted between sessions
// @description - **Chain Gateway**: All RPC reads throttled behind a circuit breaker
// @description
// @description ## - Usage Tips
// @description - Amounts are in smallest units (MIST for SUI, 1 SUI = 1,000,000,000 MIST)
// @description - Coin types use the canonical Move form, e.g. `0x2::sui::SUI`
// @description - Rate limit: 10 requests/second (burst: 20)
// @host localhost:8080
// @BasePath /
// @schemes http
// @tag.name route
// @tag.description Quote swap routes with estimated output and price impact
// @tag.name pairs
// @tag.description Inspect the cached trading-pair universe
// @tag.name gateway
// @tag.description Chain request gateway health and admin controls
// @tag.name history
// @tag.description Liquidity event and position history passthrough

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	common.SetupLogger(
		common.GetEnvOrDefault("LOG_LEVEL", "info"),
		common.GetEnvOrDefault("ENV", "dev"),
	)

	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.SuiConfig{},
		&config.GatewayConfig{},
		&config.EngineConfig{},
		&config.HistoryConfig{},
	)

	dic, err := container.New(
		conf,

		&gateway.Gateway{},
		&market.Service{},
		&aggregator.Service{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
