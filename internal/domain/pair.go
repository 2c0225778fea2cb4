package domain

import (
	"math/big"
	"time"
)

// PairRegistry maps pair object IDs to their in-memory records.
type PairRegistry map[string]*TradingPair

// SwapFeeBps is the pool swap fee deducted from the input, in basis points.
const SwapFeeBps = 30

// TradingPair is one discovered on-chain liquidity pool. CoinTypeA and
// CoinTypeB are normalized Move type tags stored in the order the pool object
// declares them. Reserves are kept as big.Int because chain balances exceed
// the float64-safe integer range.
type TradingPair struct {
	PairID      string   `json:"pairId"`
	CoinTypeA   string   `json:"coinTypeA"`
	CoinTypeB   string   `json:"coinTypeB"`
	ReserveA    *big.Int `json:"reserveA"`
	ReserveB    *big.Int `json:"reserveB"`
	FeeBps      uint16   `json:"feeBps"`
	LastUpdated int64    `json:"lastUpdated"` // ms since epoch
}

// HasLiquidity reports whether both reserves are present and positive. A pair
// with a zero reserve on either side cannot price a trade and is excluded
// from the discovered set.
func (p *TradingPair) HasLiquidity() bool {
	return p.ReserveA != nil && p.ReserveB != nil &&
		p.ReserveA.Sign() > 0 && p.ReserveB.Sign() > 0
}

// Contains reports whether the pair has coinType on either side, using
// tolerant type matching.
func (p *TradingPair) Contains(coinType string) bool {
	return SameCoinType(p.CoinTypeA, coinType) || SameCoinType(p.CoinTypeB, coinType)
}

// OtherSide returns the opposite coin type for a pair containing coinType.
// ok is false when coinType matches neither side.
func (p *TradingPair) OtherSide(coinType string) (string, bool) {
	if SameCoinType(p.CoinTypeA, coinType) {
		return p.CoinTypeB, true
	}
	if SameCoinType(p.CoinTypeB, coinType) {
		return p.CoinTypeA, true
	}
	return "", false
}

// ReservesFor orients the pair's reserves for a trade selling coinIn.
// ok is false when coinIn matches neither side.
func (p *TradingPair) ReservesFor(coinIn string) (reserveIn, reserveOut *big.Int, ok bool) {
	if SameCoinType(p.CoinTypeA, coinIn) {
		return p.ReserveA, p.ReserveB, true
	}
	if SameCoinType(p.CoinTypeB, coinIn) {
		return p.ReserveB, p.ReserveA, true
	}
	return nil, nil, false
}

// UpdateReserves replaces both reserves and stamps the record.
func (p *TradingPair) UpdateReserves(reserveA, reserveB *big.Int) {
	p.ReserveA = reserveA
	p.ReserveB = reserveB
	p.LastUpdated = time.Now().UnixMilli()
}

// StaleAfter reports whether the record is older than ttl.
func (p *TradingPair) StaleAfter(ttl time.Duration) bool {
	return time.Now().UnixMilli()-p.LastUpdated > ttl.Milliseconds()
}
