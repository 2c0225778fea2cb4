// Package aggregator wires the market view, the routing engine, and the
// chain gateway into one facade the HTTP layer talks to.
package aggregator

import (
	"context"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/pelagos-labs/route-engine/internal/config"
	"github.com/pelagos-labs/route-engine/internal/domain"
	"github.com/pelagos-labs/route-engine/internal/gateway"
	"github.com/pelagos-labs/route-engine/internal/history"
	"github.com/pelagos-labs/route-engine/internal/market"
	"github.com/pelagos-labs/route-engine/internal/router"
)

const AGGREGATOR_SERVICE = "aggregator-service"

// Error aliases so handlers only import this package.
var (
	ErrInvalidAmount = router.ErrInvalidAmount
	ErrStopped       = gateway.ErrStopped
)

type Service struct {
	container.BaseDIInstance

	gw        *gateway.Gateway
	marketSvc *market.Service
	engine    *router.CachedEngine
	historyCl *history.Client
}

func (svc *Service) ID() string {
	return AGGREGATOR_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	engConf := c.GetConfig(config.ENGINE_CONFIG_KEY).(*config.EngineConfig)
	histConf := c.GetConfig(config.HISTORY_CONFIG_KEY).(*config.HistoryConfig)

	svc.gw = c.Instance(gateway.SERVICE_NAME).(*gateway.Gateway)
	svc.marketSvc = c.Instance(market.SERVICE_NAME).(*market.Service)

	eng := router.NewEngine(svc.marketSvc, time.Duration(engConf.PairStaleSec)*time.Second)
	svc.engine = router.NewCachedEngine(eng, time.Duration(engConf.RouteCacheTTLSec)*time.Second)

	svc.historyCl = history.NewClient(histConf.BaseURL, time.Duration(histConf.TimeoutSec)*time.Second)
	if !svc.historyCl.Enabled() {
		log.Info().Msg("[aggregatorService] history service disabled")
	}
	return nil
}

func (svc *Service) Start() error {
	return nil
}

func (svc *Service) Stop() error {
	return nil
}

// FindRoutes quotes tokenIn -> tokenOut for amountIn, best routes first.
func (svc *Service) FindRoutes(ctx context.Context, tokenIn, tokenOut string, amountIn *big.Int) ([]*domain.Route, error) {
	return svc.engine.FindRoutes(ctx, tokenIn, tokenOut, amountIn, nil)
}

// Pairs lists the known liquid pairs.
func (svc *Service) Pairs() []*domain.TradingPair {
	return svc.marketSvc.Pairs()
}

// PairByID returns one pair, or nil when unknown.
func (svc *Service) PairByID(pairID string) *domain.TradingPair {
	return svc.marketSvc.PairByID(pairID)
}

// GatewayStats snapshots the chain gateway's queue and breaker state.
func (svc *Service) GatewayStats() gateway.Stats {
	return svc.gw.Snapshot()
}

// ResetGateway force-closes the circuit breaker.
func (svc *Service) ResetGateway() {
	svc.gw.ResetCircuitBreaker()
	log.Info().Msg("[aggregatorService] gateway circuit breaker reset")
}

// History exposes the history client for the HTTP passthrough handlers.
func (svc *Service) History() *history.Client {
	return svc.historyCl
}
