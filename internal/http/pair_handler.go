package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pelagos-labs/route-engine/internal/aggregator"
	"github.com/pelagos-labs/route-engine/internal/domain"
	"github.com/pelagos-labs/route-engine/internal/http/httputil"
)

type PairHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewPairHandler(aggregatorSvc *aggregator.Service) *PairHandler {
	return &PairHandler{aggregatorSvc: aggregatorSvc}
}

func (h *PairHandler) Root() string {
	return "/pairs"
}

func (h *PairHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.listPairs)
	pub.GET("/:id", h.getPair)
}

// PairInfo is the public view of a cached trading pair.
type PairInfo struct {
	PairID      string `json:"pairId"`
	CoinTypeA   string `json:"coinTypeA"`
	CoinTypeB   string `json:"coinTypeB"`
	ReserveA    string `json:"reserveA"`
	ReserveB    string `json:"reserveB"`
	FeeBps      uint16 `json:"feeBps"`
	LastUpdated string `json:"lastUpdated"`
}

func pairInfo(p *domain.TradingPair) PairInfo {
	return PairInfo{
		PairID:      p.PairID,
		CoinTypeA:   p.CoinTypeA,
		CoinTypeB:   p.CoinTypeB,
		ReserveA:    p.ReserveA.String(),
		ReserveB:    p.ReserveB.String(),
		FeeBps:      p.FeeBps,
		LastUpdated: time.UnixMilli(p.LastUpdated).UTC().Format(time.RFC3339),
	}
}

// @Summary List trading pairs
// @Description All liquid pairs currently in the reserve cache.
// @Tags pairs
// @Produce json
// @Success 200 {array} PairInfo
// @Router /api/v1/pairs [get]
func (h *PairHandler) listPairs(c *gin.Context) {
	pairs := h.aggregatorSvc.Pairs()
	out := make([]PairInfo, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, pairInfo(p))
	}
	httputil.Success(c, out)
}

// @Summary Get one trading pair
// @Tags pairs
// @Produce json
// @Param id path string true "Pair object ID"
// @Success 200 {object} PairInfo
// @Failure 404 {object} httputil.Response
// @Router /api/v1/pairs/{id} [get]
func (h *PairHandler) getPair(c *gin.Context) {
	p := h.aggregatorSvc.PairByID(c.Param("id"))
	if p == nil {
		httputil.NotFound(c, "unknown pair")
		return
	}
	httputil.Success(c, pairInfo(p))
}
