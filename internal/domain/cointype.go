package domain

import "strings"

// SuiCoinType is the canonical type tag for the network's native coin.
const SuiCoinType = "0x2::sui::SUI"

// suiCoinTypeLong is the zero-padded address form some RPC responses use.
const suiCoinTypeLong = "0x0000000000000000000000000000000000000000000000000000000000000002::sui::SUI"

// NormalizeCoinType canonicalizes a Move coin type tag for comparison.
// Identifiers arrive with inconsistent formatting depending on the data
// source: stray whitespace, a trailing '>' left over from a generic wrapper
// (e.g. "Coin<0x2::sui::SUI>"), and both short and zero-padded address forms
// for the native coin.
func NormalizeCoinType(t string) string {
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, ">")
	if strings.EqualFold(t, SuiCoinType) || strings.EqualFold(t, suiCoinTypeLong) {
		return SuiCoinType
	}
	return t
}

// SameCoinType reports whether two coin type tags refer to the same logical
// asset. Normalized strings are compared first; when they differ, the
// module::name tail is compared, and finally the bare type name. The
// progressively looser fallbacks absorb address-format drift between the
// event stream and object reads.
func SameCoinType(a, b string) bool {
	na := NormalizeCoinType(a)
	nb := NormalizeCoinType(b)
	if na == nb {
		return true
	}
	if na == "" || nb == "" {
		return false
	}

	partsA := strings.Split(na, "::")
	partsB := strings.Split(nb, "::")
	if len(partsA) >= 2 && len(partsB) >= 2 {
		tailA := strings.Join(partsA[len(partsA)-2:], "::")
		tailB := strings.Join(partsB[len(partsB)-2:], "::")
		if tailA == tailB {
			return true
		}
	}

	return partsA[len(partsA)-1] == partsB[len(partsB)-1]
}
