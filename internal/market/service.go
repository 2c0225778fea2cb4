// Package market maintains the process's best-known view of which trading
// pairs exist and what their reserves are. All chain access goes through
// the request gateway; the in-memory registry prefers stale data over no
// data.
package market

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/pelagos-labs/route-engine/internal/adapters/persistence"
	"github.com/pelagos-labs/route-engine/internal/chain"
	"github.com/pelagos-labs/route-engine/internal/config"
	"github.com/pelagos-labs/route-engine/internal/domain"
	"github.com/pelagos-labs/route-engine/internal/gateway"
	"github.com/pelagos-labs/route-engine/internal/metrics"
)

const SERVICE_NAME = "market-service"

// Options tunes the pair cache outside of DI wiring (tests construct the
// service directly).
type Options struct {
	PairCreatedEventType string
	MaxEventScan         int
	WarmCacheTTL         time.Duration
	PersistInterval      time.Duration
	PersistenceEnabled   bool
}

func defaultOptions() Options {
	return Options{
		MaxEventScan:       500,
		WarmCacheTTL:       5 * time.Minute,
		PersistInterval:    30 * time.Second,
		PersistenceEnabled: true,
	}
}

// Service implements pair discovery and the reserve cache.
type Service struct {
	container.BaseDIInstance

	client  chain.ReadClient
	gw      *gateway.Gateway
	storage *persistence.Storage
	opts    Options

	mu    sync.RWMutex
	pairs domain.PairRegistry

	// Discovery is idempotent per session: one load at a time, and a
	// completed load short-circuits every later call.
	discoverMu sync.Mutex
	discovered bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// New wires a service explicitly; used by tests and by Configure.
func New(client chain.ReadClient, gw *gateway.Gateway, storage *persistence.Storage, opts Options) *Service {
	def := defaultOptions()
	if opts.MaxEventScan <= 0 {
		opts.MaxEventScan = def.MaxEventScan
	}
	if opts.WarmCacheTTL <= 0 {
		opts.WarmCacheTTL = def.WarmCacheTTL
	}
	if opts.PersistInterval <= 0 {
		opts.PersistInterval = def.PersistInterval
	}

	return &Service{
		client:  client,
		gw:      gw,
		storage: storage,
		opts:    opts,
		pairs:   make(domain.PairRegistry),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

func (svc *Service) ID() string {
	return SERVICE_NAME
}

func (svc *Service) Configure(c container.IContainer) error {
	suiConf := c.GetConfig(config.SUI_CONFIG_KEY).(*config.SuiConfig)
	engConf := c.GetConfig(config.ENGINE_CONFIG_KEY).(*config.EngineConfig)
	gw := c.Instance(gateway.SERVICE_NAME).(*gateway.Gateway)

	var storage *persistence.Storage
	if engConf.PersistenceEnabled {
		var err error
		storage, err = persistence.NewStorage(engConf.DBPath)
		if err != nil {
			// Warm cache is best effort; run without it.
			log.Warn().Err(err).Msg("[market] persistence unavailable, running without warm cache")
			storage = nil
		}
	}

	opts := defaultOptions()
	opts.PairCreatedEventType = suiConf.PairCreatedEventType()
	opts.MaxEventScan = engConf.MaxEventScan
	opts.WarmCacheTTL = time.Duration(engConf.WarmCacheStaleSec) * time.Second
	opts.PersistInterval = time.Duration(engConf.PersistIntervalSec) * time.Second
	opts.PersistenceEnabled = engConf.PersistenceEnabled

	svc.client = chain.NewSuiClient(suiConf.RPCUrl)
	svc.gw = gw
	svc.storage = storage
	svc.opts = opts
	svc.pairs = make(domain.PairRegistry)
	svc.stopCh = make(chan struct{})
	svc.doneCh = make(chan struct{})
	return nil
}

func (svc *Service) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := svc.DiscoverPairs(ctx); err != nil {
		// Routing starts empty and fills in on the next discovery attempt.
		log.Error().Err(err).Msg("[market] initial pair discovery failed")
	}

	go svc.persistLoop()
	return nil
}

func (svc *Service) Stop() error {
	close(svc.stopCh)
	<-svc.doneCh

	svc.persistAll()
	if svc.storage != nil {
		return svc.storage.Close()
	}
	return nil
}

// DiscoverPairs loads the trading-pair universe, once per session. The
// persisted warm cache is used when younger than its TTL; otherwise the
// pair-creation event history is scanned through the gateway. Zero-reserve
// pairs never enter the registry.
func (svc *Service) DiscoverPairs(ctx context.Context) error {
	svc.discoverMu.Lock()
	defer svc.discoverMu.Unlock()

	if svc.discovered {
		metrics.PairDiscoveries.WithLabelValues("memory").Inc()
		return nil
	}

	if svc.loadWarmCache() {
		svc.discovered = true
		metrics.PairDiscoveries.WithLabelValues("warm_cache").Inc()
		return nil
	}

	if err := svc.scanChain(ctx); err != nil {
		return err
	}
	svc.discovered = true
	metrics.PairDiscoveries.WithLabelValues("chain").Inc()
	svc.persistAll()
	return nil
}

// loadWarmCache installs the persisted pair set when it is fresh enough.
// A cache older than the TTL is ignored so a fresh discovery scan runs.
func (svc *Service) loadWarmCache() bool {
	if svc.storage == nil {
		return false
	}

	savedAt := svc.storage.SavedAt()
	if savedAt.IsZero() || time.Since(savedAt) > svc.opts.WarmCacheTTL {
		return false
	}

	pairs, err := svc.storage.LoadAllPairs()
	if err != nil || len(pairs) == 0 {
		return false
	}

	svc.mu.Lock()
	for _, p := range pairs {
		if p.HasLiquidity() {
			svc.pairs[p.PairID] = p
		}
	}
	count := len(svc.pairs)
	svc.mu.Unlock()

	metrics.PairCount.Set(float64(count))
	log.Info().Int("count", count).Time("savedAt", savedAt).Msg("[market] pairs loaded from warm cache")
	return count > 0
}

// scanChain reads the pair-creation event history and fetches each pair
// object for its reserves. Malformed events or objects are skipped; the
// scan is only as good as what parses.
func (svc *Service) scanChain(ctx context.Context) error {
	events, err := gateway.Do(ctx, svc.gw, func(ctx context.Context) ([]chain.Event, error) {
		return svc.client.QueryEvents(ctx, svc.opts.PairCreatedEventType, uint64(svc.opts.MaxEventScan))
	})
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(events))
	added := 0
	skipped := 0

	for _, ev := range events {
		created, err := chain.ParsePairCreatedEvent(ev)
		if err != nil {
			log.Warn().Str("event", ev.ID).Err(err).Msg("[market] skipping malformed pair event")
			skipped++
			continue
		}
		if _, dup := seen[created.PairID]; dup {
			continue
		}
		seen[created.PairID] = struct{}{}

		pair, err := svc.fetchPair(ctx, created.PairID)
		if err != nil {
			log.Warn().Str("pairId", created.PairID).Err(err).Msg("[market] skipping unreadable pair")
			skipped++
			continue
		}
		if !pair.HasLiquidity() {
			continue
		}

		svc.mu.Lock()
		svc.pairs[pair.PairID] = pair
		svc.mu.Unlock()
		added++
	}

	svc.mu.RLock()
	count := len(svc.pairs)
	svc.mu.RUnlock()
	metrics.PairCount.Set(float64(count))

	log.Info().
		Int("events", len(events)).
		Int("added", added).
		Int("skipped", skipped).
		Msg("[market] pair discovery scan complete")
	return nil
}

func (svc *Service) fetchPair(ctx context.Context, pairID string) (*domain.TradingPair, error) {
	obj, err := gateway.Do(ctx, svc.gw, func(ctx context.Context) (*chain.ObjectContent, error) {
		return svc.client.GetObject(ctx, pairID)
	})
	if err != nil {
		return nil, err
	}
	return chain.ParsePairObject(obj)
}

// RefreshReserves re-fetches one pair's reserves and updates the record in
// place. On failure the stale record stays; stale data beats no data.
func (svc *Service) RefreshReserves(ctx context.Context, pairID string) error {
	fresh, err := svc.fetchPair(ctx, pairID)
	if err != nil {
		return err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	if existing, ok := svc.pairs[pairID]; ok {
		existing.UpdateReserves(fresh.ReserveA, fresh.ReserveB)
	} else if fresh.HasLiquidity() {
		svc.pairs[pairID] = fresh
	}
	metrics.PairRefreshes.Inc()
	return nil
}

// FindPairsContaining returns every liquid pair with coinType on either
// side. Pure in-memory lookup.
func (svc *Service) FindPairsContaining(coinType string) []*domain.TradingPair {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	var out []*domain.TradingPair
	for _, p := range svc.pairs {
		if p.HasLiquidity() && p.Contains(coinType) {
			out = append(out, p)
		}
	}
	return out
}

// FindDirectPair returns a liquid pair holding both assets, or nil.
func (svc *Service) FindDirectPair(a, b string) *domain.TradingPair {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	for _, p := range svc.pairs {
		if p.HasLiquidity() && p.Contains(a) && p.Contains(b) {
			return p
		}
	}
	return nil
}

// Pairs snapshots the registry for the HTTP layer.
func (svc *Service) Pairs() []*domain.TradingPair {
	svc.mu.RLock()
	defer svc.mu.RUnlock()

	out := make([]*domain.TradingPair, 0, len(svc.pairs))
	for _, p := range svc.pairs {
		out = append(out, p)
	}
	return out
}

// PairByID returns the pair record, or nil when unknown.
func (svc *Service) PairByID(pairID string) *domain.TradingPair {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.pairs[pairID]
}

func (svc *Service) persistLoop() {
	defer close(svc.doneCh)

	ticker := time.NewTicker(svc.opts.PersistInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			svc.persistAll()
		case <-svc.stopCh:
			return
		}
	}
}

func (svc *Service) persistAll() {
	if svc.storage == nil {
		return
	}
	pairs := svc.Pairs()
	if len(pairs) == 0 {
		return
	}
	if err := svc.storage.SavePairBatch(pairs); err != nil {
		log.Error().Err(err).Msg("[market] pair persist failed")
	}
}
