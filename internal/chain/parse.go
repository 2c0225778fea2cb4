package chain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/pelagos-labs/route-engine/internal/domain"
)

// ErrDataShape marks a chain response that does not match the schema this
// parser version understands. Callers skip the offending item and continue;
// the error is never fatal to a batch.
var ErrDataShape = errors.New("unexpected data shape")

// PairSchemaVersion is the schema revision the parsers below target.
// Earlier revisions of this code sniffed arbitrary field names to locate
// type strings; any pool or event that deviates from the v1 schema is now
// rejected outright.
const PairSchemaVersion = 1

// ParsePairObject decodes a v1 pair object into a TradingPair. The object
// type must carry exactly two type parameters (the pool's coin types) and
// the content must expose `coin_a` and `coin_b` reserve balances.
func ParsePairObject(obj *ObjectContent) (*domain.TradingPair, error) {
	if obj == nil || obj.Fields == nil {
		return nil, fmt.Errorf("%w: nil pair content", ErrDataShape)
	}

	coinA, coinB, err := pairTypeParams(obj.Type)
	if err != nil {
		return nil, err
	}

	reserveA, err := balanceField(obj.Fields, "coin_a")
	if err != nil {
		return nil, err
	}
	reserveB, err := balanceField(obj.Fields, "coin_b")
	if err != nil {
		return nil, err
	}

	return &domain.TradingPair{
		PairID:      obj.ObjectID,
		CoinTypeA:   domain.NormalizeCoinType(coinA),
		CoinTypeB:   domain.NormalizeCoinType(coinB),
		ReserveA:    reserveA,
		ReserveB:    reserveB,
		FeeBps:      domain.SwapFeeBps,
		LastUpdated: time.Now().UnixMilli(),
	}, nil
}

// PairCreated is the v1 pair-creation event payload.
type PairCreated struct {
	PairID    string
	CoinTypeA string
	CoinTypeB string
}

// ParsePairCreatedEvent decodes a v1 PairCreated event. Reserves are not
// part of the event; the caller fetches the pair object afterwards.
func ParsePairCreatedEvent(ev Event) (*PairCreated, error) {
	if ev.ParsedJSON == nil {
		return nil, fmt.Errorf("%w: event %s has no payload", ErrDataShape, ev.ID)
	}

	pairID, err := stringField(ev.ParsedJSON, "pair_id")
	if err != nil {
		return nil, err
	}
	coinA, err := stringField(ev.ParsedJSON, "coin_type_a")
	if err != nil {
		return nil, err
	}
	coinB, err := stringField(ev.ParsedJSON, "coin_type_b")
	if err != nil {
		return nil, err
	}

	return &PairCreated{
		PairID:    pairID,
		CoinTypeA: domain.NormalizeCoinType(coinA),
		CoinTypeB: domain.NormalizeCoinType(coinB),
	}, nil
}

// pairTypeParams extracts the two coin type parameters from a pair type tag,
// e.g. "0xabc::pair::Pair<0x2::sui::SUI, 0xdef::usdc::USDC>".
func pairTypeParams(typeTag string) (string, string, error) {
	open := strings.Index(typeTag, "<")
	end := strings.LastIndex(typeTag, ">")
	if open < 0 || end < open {
		return "", "", fmt.Errorf("%w: pair type %q has no type parameters", ErrDataShape, typeTag)
	}

	params := splitTypeParams(typeTag[open+1 : end])
	if len(params) != 2 {
		return "", "", fmt.Errorf("%w: pair type %q has %d type parameters, want 2", ErrDataShape, typeTag, len(params))
	}
	return params[0], params[1], nil
}

// splitTypeParams splits a comma-separated type parameter list, respecting
// nested generics.
func splitTypeParams(s string) []string {
	var params []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				params = append(params, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		params = append(params, tail)
	}
	return params
}

func stringField(fields map[string]interface{}, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: missing field %q", ErrDataShape, key)
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: field %q is not a string", ErrDataShape, key)
	}
	return s, nil
}

// balanceField reads an unsigned integer balance. The RPC layer encodes u64
// balances as JSON strings; small values occasionally arrive as numbers.
func balanceField(fields map[string]interface{}, key string) (*big.Int, error) {
	raw, ok := fields[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing field %q", ErrDataShape, key)
	}

	switch v := raw.(type) {
	case string:
		n, ok := new(big.Int).SetString(v, 10)
		if !ok || n.Sign() < 0 {
			return nil, fmt.Errorf("%w: field %q is not an unsigned integer: %q", ErrDataShape, key, v)
		}
		return n, nil
	case float64:
		if v < 0 || v != float64(int64(v)) {
			return nil, fmt.Errorf("%w: field %q is not an unsigned integer: %v", ErrDataShape, key, v)
		}
		return big.NewInt(int64(v)), nil
	case map[string]interface{}:
		// Balance<T> values arrive as a struct wrapping the raw amount,
		// either {"value": n} or {"fields": {"value": n}}.
		if inner, ok := v["value"]; ok {
			return balanceField(map[string]interface{}{key: inner}, key)
		}
		if inner, ok := v["fields"].(map[string]interface{}); ok {
			if val, ok := inner["value"]; ok {
				return balanceField(map[string]interface{}{key: val}, key)
			}
		}
		return nil, fmt.Errorf("%w: field %q wraps no balance value", ErrDataShape, key)
	default:
		return nil, fmt.Errorf("%w: field %q has type %T", ErrDataShape, key, raw)
	}
}
