package persistence

import (
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/pelagos-labs/route-engine/internal/domain"
)

func testStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "pairs.db"))
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSavePairBatchRoundTrip(t *testing.T) {
	s := testStorage(t)

	pairs := []*domain.TradingPair{
		{
			PairID:      "0xp1",
			CoinTypeA:   "0x2::sui::SUI",
			CoinTypeB:   "0xa1::usdc::USDC",
			ReserveA:    big.NewInt(1_000_000_000),
			ReserveB:    new(big.Int).Lsh(big.NewInt(1), 80), // beyond u64
			FeeBps:      domain.SwapFeeBps,
			LastUpdated: time.Now().UnixMilli(),
		},
		{
			PairID:    "0xp2",
			CoinTypeA: "0x2::sui::SUI",
			CoinTypeB: "0xb2::weth::WETH",
			ReserveA:  big.NewInt(5),
			ReserveB:  big.NewInt(9),
		},
	}

	if err := s.SavePairBatch(pairs); err != nil {
		t.Fatalf("SavePairBatch: %v", err)
	}

	loaded, err := s.LoadAllPairs()
	if err != nil {
		t.Fatalf("LoadAllPairs: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d pairs, want 2", len(loaded))
	}

	byID := map[string]*domain.TradingPair{}
	for _, p := range loaded {
		byID[p.PairID] = p
	}
	p1 := byID["0xp1"]
	if p1 == nil {
		t.Fatal("0xp1 missing")
	}
	if p1.ReserveB.Cmp(new(big.Int).Lsh(big.NewInt(1), 80)) != 0 {
		t.Errorf("big reserve lost precision: %s", p1.ReserveB)
	}
	if p1.CoinTypeA != "0x2::sui::SUI" || p1.CoinTypeB != "0xa1::usdc::USDC" {
		t.Errorf("coin types = (%q, %q)", p1.CoinTypeA, p1.CoinTypeB)
	}

	count, err := s.GetPairCount()
	if err != nil || count != 2 {
		t.Errorf("GetPairCount = (%d, %v), want 2", count, err)
	}
}

func TestSavedAtStamp(t *testing.T) {
	s := testStorage(t)

	if got := s.SavedAt(); !got.IsZero() {
		t.Errorf("fresh store should have zero SavedAt, got %v", got)
	}

	before := time.Now().Add(-time.Second)
	if err := s.SavePairBatch([]*domain.TradingPair{{
		PairID:    "0xp",
		CoinTypeA: "0x2::sui::SUI",
		CoinTypeB: "0xa1::usdc::USDC",
		ReserveA:  big.NewInt(1),
		ReserveB:  big.NewInt(1),
	}}); err != nil {
		t.Fatalf("SavePairBatch: %v", err)
	}

	got := s.SavedAt()
	if got.Before(before) || got.After(time.Now().Add(time.Second)) {
		t.Errorf("SavedAt = %v, expected roughly now", got)
	}
}

func TestStoredToPairRejectsCorruptEntries(t *testing.T) {
	tests := []struct {
		name   string
		stored *StoredPair
	}{
		{"missing id", &StoredPair{CoinTypeA: "a", CoinTypeB: "b", ReserveA: "1", ReserveB: "1"}},
		{"missing coin type", &StoredPair{PairID: "0xp", CoinTypeA: "a", ReserveA: "1", ReserveB: "1"}},
		{"garbage reserve", &StoredPair{PairID: "0xp", CoinTypeA: "a", CoinTypeB: "b", ReserveA: "xyz", ReserveB: "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := storedToPair(tt.stored); err == nil {
				t.Error("expected error for corrupt entry")
			}
		})
	}
}
