package domain

import "math/big"

// RouteKind distinguishes single-pool routes from one-intermediate-hop routes.
type RouteKind string

const (
	RouteDirect RouteKind = "direct"
	RouteMulti  RouteKind = "multi"
)

// MaxMultiHopRoutes caps how many two-hop routes a search returns.
const MaxMultiHopRoutes = 3

// Route is a candidate path from an input coin to an output coin.
// Path[0] is the requested input, Path[len-1] the requested output, and
// len(PairsUsed) == Hops. PriceImpactBps is the arithmetic sum of the
// per-hop impacts, not a compounded figure; downstream consumers depend on
// that exact shape.
type Route struct {
	Path            []string       `json:"path"`
	Hops            int            `json:"hops"`
	PairsUsed       []*TradingPair `json:"pairsUsed"`
	EstimatedOutput *big.Int       `json:"estimatedOutput"`
	PriceImpactBps  uint32         `json:"priceImpactBps"`
	Kind            RouteKind      `json:"kind"`
}

// Better reports whether r yields strictly more output than other.
func (r *Route) Better(other *Route) bool {
	if other == nil || other.EstimatedOutput == nil {
		return true
	}
	if r.EstimatedOutput == nil {
		return false
	}
	return r.EstimatedOutput.Cmp(other.EstimatedOutput) > 0
}
