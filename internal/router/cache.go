package router

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pelagos-labs/route-engine/internal/domain"
	"github.com/pelagos-labs/route-engine/internal/metrics"
)

const (
	routeCacheShards   = 8
	routeCacheCapacity = 512 // total entries across shards

	// maxAmountDriftBps invalidates a cached entry when the requested
	// amount moves more than 5% from the amount it was computed with.
	maxAmountDriftBps = 500
)

// FNV-1a constants for zero-allocation key hashing.
const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

type routeCacheEntry struct {
	key      uint64
	tokenIn  string
	tokenOut string
	amountIn *big.Int
	routes   []*domain.Route
	expiry   int64 // unix nano
	used     uint32
}

type routeCacheShard struct {
	mu      sync.RWMutex
	entries []routeCacheEntry
	size    int
	hand    int
}

// RouteCache caches computed route lists keyed by (tokenIn, tokenOut).
// Entries expire after a short TTL and are bypassed when the requested
// input amount drifts more than 5% from the cached computation's amount.
// Clock eviction over fixed per-shard arrays, same scheme as the quote
// cache this was derived from.
type RouteCache struct {
	shards [routeCacheShards]routeCacheShard
	ttl    time.Duration
}

func NewRouteCache(ttl time.Duration) *RouteCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	rc := &RouteCache{ttl: ttl}
	perShard := routeCacheCapacity / routeCacheShards
	for i := 0; i < routeCacheShards; i++ {
		rc.shards[i].entries = make([]routeCacheEntry, perShard)
	}
	return rc
}

func routeCacheKey(tokenIn, tokenOut string) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < len(tokenIn); i++ {
		h ^= uint64(tokenIn[i])
		h *= fnvPrime64
	}
	h ^= '|'
	h *= fnvPrime64
	for i := 0; i < len(tokenOut); i++ {
		h ^= uint64(tokenOut[i])
		h *= fnvPrime64
	}
	return h
}

func (rc *RouteCache) getShard(key uint64) *routeCacheShard {
	return &rc.shards[key%routeCacheShards]
}

// Get returns the cached routes for the pair, or nil on miss, expiry, or
// amount drift.
func (rc *RouteCache) Get(tokenIn, tokenOut string, amountIn *big.Int) []*domain.Route {
	key := routeCacheKey(tokenIn, tokenOut)
	now := time.Now().UnixNano()

	shard := rc.getShard(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	for i := 0; i < shard.size; i++ {
		entry := &shard.entries[i]
		if entry.key != key || entry.tokenIn != tokenIn || entry.tokenOut != tokenOut {
			continue
		}
		if now > entry.expiry {
			return nil
		}
		if !withinDrift(entry.amountIn, amountIn) {
			return nil
		}
		atomic.StoreUint32(&entry.used, 1)
		return entry.routes
	}
	return nil
}

// Set stores the routes computed for amountIn.
func (rc *RouteCache) Set(tokenIn, tokenOut string, amountIn *big.Int, routes []*domain.Route) {
	key := routeCacheKey(tokenIn, tokenOut)
	expiry := time.Now().Add(rc.ttl).UnixNano()

	shard := rc.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	for i := 0; i < shard.size; i++ {
		entry := &shard.entries[i]
		if entry.key == key && entry.tokenIn == tokenIn && entry.tokenOut == tokenOut {
			entry.amountIn = new(big.Int).Set(amountIn)
			entry.routes = routes
			entry.expiry = expiry
			atomic.StoreUint32(&entry.used, 1)
			return
		}
	}

	if shard.size < len(shard.entries) {
		entry := &shard.entries[shard.size]
		*entry = routeCacheEntry{
			key:      key,
			tokenIn:  tokenIn,
			tokenOut: tokenOut,
			amountIn: new(big.Int).Set(amountIn),
			routes:   routes,
			expiry:   expiry,
			used:     1,
		}
		shard.size++
		return
	}

	// Clock eviction with second chance.
	now := time.Now().UnixNano()
	for attempts := 0; attempts < len(shard.entries)*2; attempts++ {
		entry := &shard.entries[shard.hand]
		shard.hand = (shard.hand + 1) % len(shard.entries)

		if atomic.LoadUint32(&entry.used) == 0 || now > entry.expiry {
			*entry = routeCacheEntry{
				key:      key,
				tokenIn:  tokenIn,
				tokenOut: tokenOut,
				amountIn: new(big.Int).Set(amountIn),
				routes:   routes,
				expiry:   expiry,
				used:     1,
			}
			return
		}
		atomic.StoreUint32(&entry.used, 0)
	}

	entry := &shard.entries[shard.hand]
	*entry = routeCacheEntry{
		key:      key,
		tokenIn:  tokenIn,
		tokenOut: tokenOut,
		amountIn: new(big.Int).Set(amountIn),
		routes:   routes,
		expiry:   expiry,
		used:     1,
	}
	shard.hand = (shard.hand + 1) % len(shard.entries)
}

// withinDrift reports whether requested is within 5% of cached.
func withinDrift(cached, requested *big.Int) bool {
	if cached == nil || requested == nil || cached.Sign() <= 0 {
		return false
	}
	diff := new(big.Int).Sub(requested, cached)
	diff.Abs(diff)
	diff.Mul(diff, bpsDenom)
	limit := new(big.Int).Mul(cached, big.NewInt(maxAmountDriftBps))
	return diff.Cmp(limit) <= 0
}

// CachedEngine fronts an Engine with the route cache.
type CachedEngine struct {
	engine *Engine
	cache  *RouteCache
}

func NewCachedEngine(engine *Engine, ttl time.Duration) *CachedEngine {
	return &CachedEngine{
		engine: engine,
		cache:  NewRouteCache(ttl),
	}
}

// FindRoutes serves from cache when the entry is fresh and the amount has
// not drifted, otherwise recomputes and stores the result. Route
// computation is a pure function of cache state, so concurrent misses for
// the same pair both compute and last-write-wins is fine.
func (ce *CachedEngine) FindRoutes(ctx context.Context, tokenIn, tokenOut string, amountIn *big.Int, directPair *domain.TradingPair) ([]*domain.Route, error) {
	tokenIn = domain.NormalizeCoinType(tokenIn)
	tokenOut = domain.NormalizeCoinType(tokenOut)

	if routes := ce.cache.Get(tokenIn, tokenOut, amountIn); routes != nil {
		metrics.RouteCacheHits.Inc()
		return routes, nil
	}
	metrics.RouteCacheMisses.Inc()

	start := time.Now()
	routes, err := ce.engine.FindRoutes(ctx, tokenIn, tokenOut, amountIn, directPair)
	metrics.RouteDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RouteRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	if len(routes) == 0 {
		metrics.RouteRequests.WithLabelValues("no_route").Inc()
	} else {
		metrics.RouteRequests.WithLabelValues("ok").Inc()
	}

	ce.cache.Set(tokenIn, tokenOut, amountIn, routes)
	return routes, nil
}
