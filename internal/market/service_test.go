package market

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pelagos-labs/route-engine/internal/adapters/persistence"
	"github.com/pelagos-labs/route-engine/internal/chain"
	"github.com/pelagos-labs/route-engine/internal/domain"
	"github.com/pelagos-labs/route-engine/internal/gateway"
)

const (
	testEventType = "0xabc::pair::PairCreated"
	sui           = "0x2::sui::SUI"
	usdc          = "0xa1::usdc::USDC"
	weth          = "0xb2::weth::WETH"
)

// fakeChain is an in-memory ReadClient with failure injection.
type fakeChain struct {
	mu         sync.Mutex
	events     []chain.Event
	objects    map[string]*chain.ObjectContent
	queryCalls int
	objectErr  error
}

func (f *fakeChain) GetObject(ctx context.Context, objectID string) (*chain.ObjectContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objectErr != nil {
		return nil, f.objectErr
	}
	obj, ok := f.objects[objectID]
	if !ok {
		return nil, chain.ErrObjectNotFound
	}
	return obj, nil
}

func (f *fakeChain) GetCoins(ctx context.Context, owner, coinType string, limit uint64) ([]chain.CoinBalance, error) {
	return nil, nil
}

func (f *fakeChain) QueryEvents(ctx context.Context, eventType string, limit uint64) ([]chain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	return f.events, nil
}

func (f *fakeChain) DryRunTransaction(ctx context.Context, txBytesB64 string) error {
	return nil
}

func (f *fakeChain) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queryCalls
}

func (f *fakeChain) setObjectErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objectErr = err
}

func pairEvent(pairID, coinA, coinB string) chain.Event {
	return chain.Event{
		ID:   pairID + ":0",
		Type: testEventType,
		ParsedJSON: map[string]interface{}{
			"pair_id":     pairID,
			"coin_type_a": coinA,
			"coin_type_b": coinB,
		},
	}
}

func pairObject(pairID, coinA, coinB, reserveA, reserveB string) *chain.ObjectContent {
	return &chain.ObjectContent{
		ObjectID: pairID,
		Type:     "0xabc::pair::Pair<" + coinA + ", " + coinB + ">",
		Fields: map[string]interface{}{
			"coin_a": reserveA,
			"coin_b": reserveB,
		},
	}
}

func testGateway(t *testing.T) *gateway.Gateway {
	t.Helper()
	g := gateway.New(gateway.Config{MaxConcurrent: 2, MinInterval: time.Millisecond})
	if err := g.Start(); err != nil {
		t.Fatalf("gateway start: %v", err)
	}
	t.Cleanup(func() { _ = g.Stop() })
	return g
}

func testService(t *testing.T, fc *fakeChain, storage *persistence.Storage, warmTTL time.Duration) *Service {
	t.Helper()
	return New(fc, testGateway(t), storage, Options{
		PairCreatedEventType: testEventType,
		MaxEventScan:         100,
		WarmCacheTTL:         warmTTL,
		PersistInterval:      time.Hour,
	})
}

func TestDiscoverPairsIdempotent(t *testing.T) {
	fc := &fakeChain{
		events: []chain.Event{pairEvent("0xp1", sui, usdc)},
		objects: map[string]*chain.ObjectContent{
			"0xp1": pairObject("0xp1", sui, usdc, "1000000000", "2000000000"),
		},
	}
	svc := testService(t, fc, nil, time.Minute)

	for i := 0; i < 3; i++ {
		if err := svc.DiscoverPairs(context.Background()); err != nil {
			t.Fatalf("DiscoverPairs #%d: %v", i+1, err)
		}
	}

	if got := fc.queryCount(); got != 1 {
		t.Errorf("chain scanned %d times, discovery must run once per session", got)
	}
	if got := len(svc.Pairs()); got != 1 {
		t.Errorf("pair count = %d, want 1", got)
	}
}

func TestDiscoverPairsExcludesZeroReserves(t *testing.T) {
	fc := &fakeChain{
		events: []chain.Event{
			pairEvent("0xliquid", sui, usdc),
			pairEvent("0xempty", sui, weth),
		},
		objects: map[string]*chain.ObjectContent{
			"0xliquid": pairObject("0xliquid", sui, usdc, "1000000000", "2000000000"),
			"0xempty":  pairObject("0xempty", sui, weth, "0", "5000"),
		},
	}
	svc := testService(t, fc, nil, time.Minute)

	if err := svc.DiscoverPairs(context.Background()); err != nil {
		t.Fatalf("DiscoverPairs: %v", err)
	}

	if svc.PairByID("0xempty") != nil {
		t.Error("zero-reserve pair must not enter the registry")
	}
	if svc.PairByID("0xliquid") == nil {
		t.Error("liquid pair missing from the registry")
	}
}

func TestDiscoverPairsSkipsMalformedEvents(t *testing.T) {
	bad := chain.Event{
		ID:         "bad:0",
		Type:       testEventType,
		ParsedJSON: map[string]interface{}{"unexpected": "shape"},
	}
	fc := &fakeChain{
		events: []chain.Event{bad, pairEvent("0xp1", sui, usdc)},
		objects: map[string]*chain.ObjectContent{
			"0xp1": pairObject("0xp1", sui, usdc, "1000", "2000"),
		},
	}
	svc := testService(t, fc, nil, time.Minute)

	if err := svc.DiscoverPairs(context.Background()); err != nil {
		t.Fatalf("a malformed event must not fail the scan: %v", err)
	}
	if got := len(svc.Pairs()); got != 1 {
		t.Errorf("pair count = %d, want 1", got)
	}
}

func TestDiscoverPairsUsesFreshWarmCache(t *testing.T) {
	storage, err := persistence.NewStorage(filepath.Join(t.TempDir(), "pairs.db"))
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}

	saved := &domain.TradingPair{
		PairID:      "0xwarm",
		CoinTypeA:   sui,
		CoinTypeB:   usdc,
		ReserveA:    big.NewInt(1_000_000),
		ReserveB:    big.NewInt(2_000_000),
		FeeBps:      domain.SwapFeeBps,
		LastUpdated: time.Now().UnixMilli(),
	}
	if err := storage.SavePairBatch([]*domain.TradingPair{saved}); err != nil {
		t.Fatalf("SavePairBatch: %v", err)
	}

	fc := &fakeChain{}
	svc := testService(t, fc, storage, 5*time.Minute)
	t.Cleanup(func() { _ = storage.Close() })

	if err := svc.DiscoverPairs(context.Background()); err != nil {
		t.Fatalf("DiscoverPairs: %v", err)
	}

	if got := fc.queryCount(); got != 0 {
		t.Errorf("fresh warm cache should skip the chain scan, saw %d queries", got)
	}
	if svc.PairByID("0xwarm") == nil {
		t.Error("warm cache pair missing from the registry")
	}
}

func TestDiscoverPairsIgnoresStaleWarmCache(t *testing.T) {
	storage, err := persistence.NewStorage(filepath.Join(t.TempDir(), "pairs.db"))
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}

	saved := &domain.TradingPair{
		PairID:    "0xold",
		CoinTypeA: sui,
		CoinTypeB: usdc,
		ReserveA:  big.NewInt(1),
		ReserveB:  big.NewInt(1),
	}
	if err := storage.SavePairBatch([]*domain.TradingPair{saved}); err != nil {
		t.Fatalf("SavePairBatch: %v", err)
	}

	fc := &fakeChain{
		events: []chain.Event{pairEvent("0xp1", sui, weth)},
		objects: map[string]*chain.ObjectContent{
			"0xp1": pairObject("0xp1", sui, weth, "1000", "2000"),
		},
	}
	// TTL short enough that the batch saved above is already stale.
	svc := testService(t, fc, storage, time.Millisecond)
	t.Cleanup(func() { _ = storage.Close() })

	time.Sleep(10 * time.Millisecond)
	if err := svc.DiscoverPairs(context.Background()); err != nil {
		t.Fatalf("DiscoverPairs: %v", err)
	}

	if got := fc.queryCount(); got != 1 {
		t.Errorf("stale warm cache must force a chain scan, saw %d queries", got)
	}
	if svc.PairByID("0xold") != nil {
		t.Error("stale warm cache pair should not be installed")
	}
	if svc.PairByID("0xp1") == nil {
		t.Error("scan result missing from the registry")
	}
}

func TestRefreshReservesUpdatesInPlace(t *testing.T) {
	fc := &fakeChain{
		events: []chain.Event{pairEvent("0xp1", sui, usdc)},
		objects: map[string]*chain.ObjectContent{
			"0xp1": pairObject("0xp1", sui, usdc, "1000", "2000"),
		},
	}
	svc := testService(t, fc, nil, time.Minute)
	if err := svc.DiscoverPairs(context.Background()); err != nil {
		t.Fatalf("DiscoverPairs: %v", err)
	}

	fc.mu.Lock()
	fc.objects["0xp1"] = pairObject("0xp1", sui, usdc, "5000", "9000")
	fc.mu.Unlock()

	if err := svc.RefreshReserves(context.Background(), "0xp1"); err != nil {
		t.Fatalf("RefreshReserves: %v", err)
	}

	p := svc.PairByID("0xp1")
	if p.ReserveA.Int64() != 5000 || p.ReserveB.Int64() != 9000 {
		t.Errorf("reserves = (%s, %s), want (5000, 9000)", p.ReserveA, p.ReserveB)
	}
}

func TestRefreshReservesFailureKeepsStaleRecord(t *testing.T) {
	fc := &fakeChain{
		events: []chain.Event{pairEvent("0xp1", sui, usdc)},
		objects: map[string]*chain.ObjectContent{
			"0xp1": pairObject("0xp1", sui, usdc, "1000", "2000"),
		},
	}
	svc := testService(t, fc, nil, time.Minute)
	if err := svc.DiscoverPairs(context.Background()); err != nil {
		t.Fatalf("DiscoverPairs: %v", err)
	}

	fc.setObjectErr(errors.New("rpc timeout"))

	if err := svc.RefreshReserves(context.Background(), "0xp1"); err == nil {
		t.Fatal("expected refresh error")
	}

	p := svc.PairByID("0xp1")
	if p == nil {
		t.Fatal("pair evicted on refresh failure, stale record must survive")
	}
	if p.ReserveA.Int64() != 1000 || p.ReserveB.Int64() != 2000 {
		t.Errorf("stale reserves changed: (%s, %s)", p.ReserveA, p.ReserveB)
	}
}

func TestFindDirectPairToleratesTypeDrift(t *testing.T) {
	fc := &fakeChain{
		events: []chain.Event{pairEvent("0xp1", sui, usdc)},
		objects: map[string]*chain.ObjectContent{
			"0xp1": pairObject("0xp1", sui, usdc, "1000", "2000"),
		},
	}
	svc := testService(t, fc, nil, time.Minute)
	if err := svc.DiscoverPairs(context.Background()); err != nil {
		t.Fatalf("DiscoverPairs: %v", err)
	}

	// Generic-wrapped and zero-padded spellings must still match.
	p := svc.FindDirectPair(" 0x2::sui::SUI>", usdc)
	if p == nil || p.PairID != "0xp1" {
		t.Error("tolerant direct-pair lookup failed")
	}

	if got := svc.FindPairsContaining("0x0000000000000000000000000000000000000000000000000000000000000002::sui::SUI"); len(got) != 1 {
		t.Errorf("FindPairsContaining with padded address: %d pairs, want 1", len(got))
	}
}
