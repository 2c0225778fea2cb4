package router

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/pelagos-labs/route-engine/internal/domain"
)

// Basis-point constants for the constant-product formula.
var (
	bpsDenom    = big.NewInt(10000)
	feeRetained = big.NewInt(10000 - domain.SwapFeeBps)

	u256BpsDenom    = uint256.NewInt(10000)
	u256FeeRetained = uint256.NewInt(10000 - domain.SwapFeeBps)
)

// GetAmountOut prices one hop through a constant-product pool with the 30
// bps swap fee deducted from the input:
//
//	amountOut = floor(amountIn * 9970 * reserveOut / (reserveIn * 10000))
//
// All arithmetic is exact integer arithmetic; reserves routinely exceed the
// float64-safe range. A trade with amountIn >= reserveIn would drain the
// opposite reserve under this simplified model, so it returns zero and the
// caller drops the path instead of reporting a misleading number. Zero is
// also returned for nil or non-positive operands.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) *big.Int {
	if amountIn == nil || reserveIn == nil || reserveOut == nil {
		return new(big.Int)
	}
	if amountIn.Sign() <= 0 || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return new(big.Int)
	}
	if amountIn.Cmp(reserveIn) >= 0 {
		return new(big.Int)
	}

	// Hot path: on-chain balances are u64, so the whole computation fits
	// comfortably in 256 bits.
	if amountIn.IsUint64() && reserveIn.IsUint64() && reserveOut.IsUint64() {
		num := new(uint256.Int).SetUint64(amountIn.Uint64())
		num.Mul(num, u256FeeRetained)
		num.Mul(num, new(uint256.Int).SetUint64(reserveOut.Uint64()))

		den := new(uint256.Int).SetUint64(reserveIn.Uint64())
		den.Mul(den, u256BpsDenom)

		num.Div(num, den)
		return num.ToBig()
	}

	num := new(big.Int).Mul(amountIn, feeRetained)
	num.Mul(num, reserveOut)

	den := new(big.Int).Mul(reserveIn, bpsDenom)

	return num.Div(num, den)
}

// PriceImpactBps estimates a hop's price impact as the trade's share of the
// input reserve, in basis points: amountIn * 10000 / reserveIn. Multi-hop
// impacts are summed, not compounded; that approximation is part of the
// published output shape and is kept as is.
func PriceImpactBps(amountIn, reserveIn *big.Int) uint32 {
	if amountIn == nil || reserveIn == nil {
		return 0
	}
	if amountIn.Sign() <= 0 || reserveIn.Sign() <= 0 {
		return 0
	}

	impact := new(big.Int).Mul(amountIn, bpsDenom)
	impact.Div(impact, reserveIn)

	if !impact.IsUint64() || impact.Uint64() > uint64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(impact.Uint64())
}

// ImpactPercent renders a bps impact as the percentage figure shown to
// users (bps / 100).
func ImpactPercent(bps uint32) float64 {
	return float64(bps) / 100
}
