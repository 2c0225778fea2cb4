package router

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pelagos-labs/route-engine/internal/domain"
)

var ErrInvalidAmount = errors.New("invalid amount")

// maxRefreshConcurrency bounds pre-search reserve refreshes so one route
// request cannot flood the gateway.
const maxRefreshConcurrency = 5

// PairSource is the view of the pair cache the engine needs. Lookups are
// pure in-memory reads; RefreshReserves goes through the gateway.
type PairSource interface {
	FindPairsContaining(coinType string) []*domain.TradingPair
	FindDirectPair(a, b string) *domain.TradingPair
	RefreshReserves(ctx context.Context, pairID string) error
}

// Engine computes ranked swap routes over the discovered pair universe:
// at most one direct route, plus the best two-hop routes through a single
// intermediate asset.
type Engine struct {
	pairs    PairSource
	staleTTL time.Duration
}

func NewEngine(pairs PairSource, staleTTL time.Duration) *Engine {
	if staleTTL <= 0 {
		staleTTL = 60 * time.Second
	}
	return &Engine{pairs: pairs, staleTTL: staleTTL}
}

// twoHopCandidate is one (first pair, intermediate, second pair) combination.
type twoHopCandidate struct {
	first  *domain.TradingPair
	mid    string
	second *domain.TradingPair
}

// FindRoutes returns feasible routes from tokenIn to tokenOut for amountIn,
// direct routes first, then up to MaxMultiHopRoutes two-hop routes by
// descending estimated output. An empty slice means no viable route; that
// is a result, not an error. directPair, when non-nil, short-circuits the
// direct-pair lookup (the caller already knows the pool).
func (e *Engine) FindRoutes(ctx context.Context, tokenIn, tokenOut string, amountIn *big.Int, directPair *domain.TradingPair) ([]*domain.Route, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	tokenIn = domain.NormalizeCoinType(tokenIn)
	tokenOut = domain.NormalizeCoinType(tokenOut)
	if domain.SameCoinType(tokenIn, tokenOut) {
		return []*domain.Route{}, nil
	}

	if directPair == nil {
		directPair = e.pairs.FindDirectPair(tokenIn, tokenOut)
	}
	candidates := e.collectTwoHop(tokenIn, tokenOut, directPair)

	e.refreshStale(ctx, directPair, candidates)

	routes := make([]*domain.Route, 0, 1+domain.MaxMultiHopRoutes)
	if directPair != nil {
		if r, ok := e.evaluateDirect(tokenIn, tokenOut, amountIn, directPair); ok {
			routes = append(routes, r)
		}
	}

	multi := make([]*domain.Route, 0, len(candidates))
	for _, c := range candidates {
		r, ok := e.evaluateTwoHop(tokenIn, tokenOut, amountIn, c)
		if !ok {
			continue
		}
		multi = append(multi, r)
	}

	sort.SliceStable(multi, func(i, j int) bool {
		return multi[i].EstimatedOutput.Cmp(multi[j].EstimatedOutput) > 0
	})
	if len(multi) > domain.MaxMultiHopRoutes {
		multi = multi[:domain.MaxMultiHopRoutes]
	}

	return append(routes, multi...), nil
}

// collectTwoHop enumerates every pair containing tokenIn, takes its other
// side as the intermediate, and pairs it with every pool containing both
// the intermediate and tokenOut. An intermediate equal to tokenOut would
// just duplicate the direct route and is skipped.
func (e *Engine) collectTwoHop(tokenIn, tokenOut string, directPair *domain.TradingPair) []twoHopCandidate {
	var candidates []twoHopCandidate

	outPairs := e.pairs.FindPairsContaining(tokenOut)

	for _, p1 := range e.pairs.FindPairsContaining(tokenIn) {
		mid, ok := p1.OtherSide(tokenIn)
		if !ok || domain.SameCoinType(mid, tokenOut) {
			continue
		}
		if directPair != nil && p1.PairID == directPair.PairID {
			continue
		}

		for _, p2 := range outPairs {
			if p2.PairID == p1.PairID || !p2.Contains(mid) {
				continue
			}
			candidates = append(candidates, twoHopCandidate{first: p1, mid: mid, second: p2})
		}
	}

	return candidates
}

// refreshStale re-fetches reserves for every involved pair whose record is
// older than the staleness TTL, at most maxRefreshConcurrency at a time.
// Refresh failures keep the stale record; stale data still prices a route.
func (e *Engine) refreshStale(ctx context.Context, directPair *domain.TradingPair, candidates []twoHopCandidate) {
	stale := make(map[string]struct{})
	consider := func(p *domain.TradingPair) {
		if p != nil && p.StaleAfter(e.staleTTL) {
			stale[p.PairID] = struct{}{}
		}
	}
	consider(directPair)
	for _, c := range candidates {
		consider(c.first)
		consider(c.second)
	}
	if len(stale) == 0 {
		return
	}

	sem := make(chan struct{}, maxRefreshConcurrency)
	var wg sync.WaitGroup
	for pairID := range stale {
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := e.pairs.RefreshReserves(ctx, id); err != nil {
				log.Warn().Str("pairId", id).Err(err).Msg("[router] reserve refresh failed, using stale data")
			}
		}(pairID)
	}
	wg.Wait()
}

func (e *Engine) evaluateDirect(tokenIn, tokenOut string, amountIn *big.Int, pair *domain.TradingPair) (*domain.Route, bool) {
	reserveIn, reserveOut, ok := pair.ReservesFor(tokenIn)
	if !ok {
		return nil, false
	}

	out := GetAmountOut(amountIn, reserveIn, reserveOut)
	if out.Sign() <= 0 {
		return nil, false
	}

	return &domain.Route{
		Path:            []string{tokenIn, tokenOut},
		Hops:            1,
		PairsUsed:       []*domain.TradingPair{pair},
		EstimatedOutput: out,
		PriceImpactBps:  PriceImpactBps(amountIn, reserveIn),
		Kind:            domain.RouteDirect,
	}, true
}

// evaluateTwoHop chains the constant-product formula through both pairs.
// Any infeasible hop (zero output, mismatched sides, malformed reserves)
// drops just this candidate; the search goes on.
func (e *Engine) evaluateTwoHop(tokenIn, tokenOut string, amountIn *big.Int, c twoHopCandidate) (*domain.Route, bool) {
	r1In, r1Out, ok := c.first.ReservesFor(tokenIn)
	if !ok {
		return nil, false
	}
	midOut := GetAmountOut(amountIn, r1In, r1Out)
	if midOut.Sign() <= 0 {
		return nil, false
	}

	r2In, r2Out, ok := c.second.ReservesFor(c.mid)
	if !ok {
		return nil, false
	}
	finalOut := GetAmountOut(midOut, r2In, r2Out)
	if finalOut.Sign() <= 0 {
		return nil, false
	}

	return &domain.Route{
		Path:            []string{tokenIn, c.mid, tokenOut},
		Hops:            2,
		PairsUsed:       []*domain.TradingPair{c.first, c.second},
		EstimatedOutput: finalOut,
		PriceImpactBps:  PriceImpactBps(amountIn, r1In) + PriceImpactBps(midOut, r2In),
		Kind:            domain.RouteMulti,
	}, true
}
