package domain

import "testing"

func TestNormalizeCoinType(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"already canonical", "0x2::sui::SUI", "0x2::sui::SUI"},
		{"surrounding whitespace", "  0x2::sui::SUI ", "0x2::sui::SUI"},
		{"trailing generic bracket", "0x2::sui::SUI>", "0x2::sui::SUI"},
		{"whitespace and bracket", " 0x2::sui::SUI> ", "0x2::sui::SUI"},
		{"zero padded native coin", "0x0000000000000000000000000000000000000000000000000000000000000002::sui::SUI", "0x2::sui::SUI"},
		{"native coin case folded", "0x2::SUI::sui", "0x2::sui::SUI"},
		{"non native untouched", "0xa1::usdc::USDC", "0xa1::usdc::USDC"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCoinType(tt.in); got != tt.expected {
				t.Errorf("NormalizeCoinType(%q) = %q, want %q", tt.in, got, tt.expected)
			}
		})
	}
}

func TestSameCoinType(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"identical", "0xa1::usdc::USDC", "0xa1::usdc::USDC", true},
		{"bracket vs bare", " 0x2::sui::SUI>", "0x2::sui::SUI", true},
		{"short vs padded native", "0x2::sui::SUI", "0x0000000000000000000000000000000000000000000000000000000000000002::sui::SUI", true},
		{"address drift same module tail", "0xa1::usdc::USDC", "0xffff::usdc::USDC", true},
		{"bare name fallback", "USDC", "0xa1::usdc::USDC", true},
		{"different assets", "0xa1::usdc::USDC", "0xb2::weth::WETH", false},
		{"both empty", "", "", true},
		{"one empty", "", "0x2::sui::SUI", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameCoinType(tt.a, tt.b); got != tt.same {
				t.Errorf("SameCoinType(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.same)
			}
			// Matching is symmetric.
			if got := SameCoinType(tt.b, tt.a); got != tt.same {
				t.Errorf("SameCoinType(%q, %q) = %v, want %v (symmetry)", tt.b, tt.a, got, tt.same)
			}
		})
	}
}
