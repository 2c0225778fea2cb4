package http

import (
	"fmt"
	"math/big"

	"github.com/gin-gonic/gin"

	"github.com/pelagos-labs/route-engine/internal/aggregator"
	"github.com/pelagos-labs/route-engine/internal/domain"
	"github.com/pelagos-labs/route-engine/internal/http/httputil"
	"github.com/pelagos-labs/route-engine/internal/router"
)

type RouteHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewRouteHandler(aggregatorSvc *aggregator.Service) *RouteHandler {
	return &RouteHandler{aggregatorSvc: aggregatorSvc}
}

func (h *RouteHandler) Root() string {
	return "/route"
}

func (h *RouteHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getRoutes)
}

// RouteQuery carries the quote request parameters.
type RouteQuery struct {
	// Input coin type, e.g. "0x2::sui::SUI"
	TokenIn string `form:"tokenIn" binding:"required" example:"0x2::sui::SUI"`

	// Output coin type
	TokenOut string `form:"tokenOut" binding:"required" example:"0xa1::usdc::USDC"`

	// Amount in smallest units (MIST for SUI)
	AmountIn string `form:"amountIn" binding:"required" example:"1000000000"`
}

// HopInfo describes one constant-product swap inside a route.
type HopInfo struct {
	PairID   string `json:"pairId"`
	TokenIn  string `json:"tokenIn"`
	TokenOut string `json:"tokenOut"`
	FeeBps   uint16 `json:"feeBps"`
}

// RouteInfo is one candidate route, best output first in the response list.
type RouteInfo struct {
	Kind               string    `json:"kind" enums:"direct,multi"`
	Path               []string  `json:"path"`
	Hops               []HopInfo `json:"hops"`
	HopCount           int       `json:"hopCount"`
	EstimatedOutput    string    `json:"estimatedOutput"`
	PriceImpactBps     uint32    `json:"priceImpactBps"`
	PriceImpactPercent string    `json:"priceImpactPercent"`
	ImpactSeverity     string    `json:"impactSeverity" enums:"none,low,moderate,high,extreme"`
	ImpactWarning      string    `json:"impactWarning,omitempty"`
}

// RoutesResponse wraps the candidate list for one quote request.
type RoutesResponse struct {
	TokenIn  string      `json:"tokenIn"`
	TokenOut string      `json:"tokenOut"`
	AmountIn string      `json:"amountIn"`
	Routes   []RouteInfo `json:"routes"`
}

// @Summary Find swap routes
// @Description Quote tokenIn -> tokenOut for amountIn across direct and two-hop constant-product routes. Direct routes are listed first, then up to three multi-hop candidates ranked by estimated output.
// @Tags route
// @Produce json
// @Param tokenIn query string true "Input coin type" example("0x2::sui::SUI")
// @Param tokenOut query string true "Output coin type"
// @Param amountIn query string true "Input amount in smallest units" example("1000000000")
// @Success 200 {object} RoutesResponse
// @Failure 400 {object} httputil.Response "Malformed parameters"
// @Failure 404 {object} httputil.Response "No viable route"
// @Router /api/v1/route [get]
func (h *RouteHandler) getRoutes(c *gin.Context) {
	var q RouteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}

	amountIn, ok := new(big.Int).SetString(q.AmountIn, 10)
	if !ok || amountIn.Sign() <= 0 {
		httputil.BadRequest(c, "invalid amountIn: must be a positive integer")
		return
	}

	routes, err := h.aggregatorSvc.FindRoutes(c.Request.Context(), q.TokenIn, q.TokenOut, amountIn)
	if err != nil {
		httputil.InternalError(c, "route search failed: "+err.Error())
		return
	}
	if len(routes) == 0 {
		httputil.NotFound(c, "no route found")
		return
	}

	out := make([]RouteInfo, 0, len(routes))
	for _, r := range routes {
		out = append(out, buildRouteInfo(r))
	}

	httputil.Success(c, RoutesResponse{
		TokenIn:  q.TokenIn,
		TokenOut: q.TokenOut,
		AmountIn: amountIn.String(),
		Routes:   out,
	})
}

func buildRouteInfo(r *domain.Route) RouteInfo {
	hops := make([]HopInfo, 0, len(r.PairsUsed))
	for i, p := range r.PairsUsed {
		hop := HopInfo{PairID: p.PairID, FeeBps: p.FeeBps}
		if i+1 < len(r.Path) {
			hop.TokenIn = r.Path[i]
			hop.TokenOut = r.Path[i+1]
		}
		hops = append(hops, hop)
	}

	kind := "direct"
	if r.Kind == domain.RouteMulti {
		kind = "multi"
	}

	return RouteInfo{
		Kind:               kind,
		Path:               r.Path,
		Hops:               hops,
		HopCount:           r.Hops,
		EstimatedOutput:    r.EstimatedOutput.String(),
		PriceImpactBps:     r.PriceImpactBps,
		PriceImpactPercent: fmt.Sprintf("%.2f%%", router.ImpactPercent(r.PriceImpactBps)),
		ImpactSeverity:     string(router.GetPriceImpactSeverity(r.PriceImpactBps)),
		ImpactWarning:      router.GetPriceImpactWarning(r.PriceImpactBps),
	}
}
