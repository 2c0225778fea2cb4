package router

import (
	"math/big"
	"testing"
	"time"

	"github.com/pelagos-labs/route-engine/internal/domain"
)

func cachedRoutes(output int64) []*domain.Route {
	return []*domain.Route{{
		Path:            []string{sui, usdc},
		Hops:            1,
		EstimatedOutput: big.NewInt(output),
		Kind:            domain.RouteDirect,
	}}
}

func TestRouteCacheHit(t *testing.T) {
	rc := NewRouteCache(30 * time.Second)
	amount := big.NewInt(1_000_000_000)

	rc.Set(sui, usdc, amount, cachedRoutes(42))

	got := rc.Get(sui, usdc, amount)
	if got == nil {
		t.Fatal("expected cache hit")
	}
	if got[0].EstimatedOutput.Int64() != 42 {
		t.Errorf("wrong routes returned: %s", got[0].EstimatedOutput)
	}
}

func TestRouteCacheMissOnDifferentPair(t *testing.T) {
	rc := NewRouteCache(30 * time.Second)
	amount := big.NewInt(1_000_000_000)

	rc.Set(sui, usdc, amount, cachedRoutes(42))

	if got := rc.Get(sui, weth, amount); got != nil {
		t.Error("different tokenOut should miss")
	}
	if got := rc.Get(usdc, sui, amount); got != nil {
		t.Error("reversed direction should miss")
	}
}

func TestRouteCacheExpiry(t *testing.T) {
	rc := NewRouteCache(10 * time.Millisecond)
	amount := big.NewInt(1_000_000_000)

	rc.Set(sui, usdc, amount, cachedRoutes(42))
	time.Sleep(25 * time.Millisecond)

	if got := rc.Get(sui, usdc, amount); got != nil {
		t.Error("expired entry should miss")
	}
}

func TestRouteCacheAmountDrift(t *testing.T) {
	rc := NewRouteCache(30 * time.Second)
	cachedAmount := big.NewInt(1_000_000_000)
	rc.Set(sui, usdc, cachedAmount, cachedRoutes(42))

	tests := []struct {
		name      string
		requested int64
		wantHit   bool
	}{
		{"same amount", 1_000_000_000, true},
		{"four percent more", 1_040_000_000, true},
		{"exactly five percent", 1_050_000_000, true},
		{"just over five percent", 1_050_000_001, false},
		{"five percent less", 950_000_000, true},
		{"six percent less", 940_000_000, false},
		{"double", 2_000_000_000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rc.Get(sui, usdc, big.NewInt(tt.requested))
			if (got != nil) != tt.wantHit {
				t.Errorf("amount %d: hit=%v, want %v", tt.requested, got != nil, tt.wantHit)
			}
		})
	}
}

func TestRouteCacheOverwriteRefreshesAmount(t *testing.T) {
	rc := NewRouteCache(30 * time.Second)

	rc.Set(sui, usdc, big.NewInt(1_000_000_000), cachedRoutes(42))
	rc.Set(sui, usdc, big.NewInt(2_000_000_000), cachedRoutes(99))

	// Drift is measured against the latest stored amount.
	if got := rc.Get(sui, usdc, big.NewInt(1_000_000_000)); got != nil {
		t.Error("old amount should now be outside the drift window")
	}
	got := rc.Get(sui, usdc, big.NewInt(2_000_000_000))
	if got == nil {
		t.Fatal("expected hit on refreshed amount")
	}
	if got[0].EstimatedOutput.Int64() != 99 {
		t.Errorf("stale routes survived the overwrite: %s", got[0].EstimatedOutput)
	}
}

func BenchmarkRouteCacheGet(b *testing.B) {
	rc := NewRouteCache(30 * time.Second)
	amount := big.NewInt(1_000_000_000)
	rc.Set(sui, usdc, amount, cachedRoutes(42))

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = rc.Get(sui, usdc, amount)
	}
}
