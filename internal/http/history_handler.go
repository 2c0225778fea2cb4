package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/pelagos-labs/route-engine/internal/aggregator"
	"github.com/pelagos-labs/route-engine/internal/history"
	"github.com/pelagos-labs/route-engine/internal/http/httputil"
)

// HistoryHandler proxies reads to the external history service.
type HistoryHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewHistoryHandler(aggregatorSvc *aggregator.Service) *HistoryHandler {
	return &HistoryHandler{aggregatorSvc: aggregatorSvc}
}

func (h *HistoryHandler) Root() string {
	return "/history"
}

func (h *HistoryHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/liquidity-events", h.liquidityEvents)
	pub.GET("/positions", h.positions)
}

// @Summary Liquidity events for a pair
// @Tags history
// @Produce json
// @Param pairId query string true "Pair object ID"
// @Success 200 {array} history.LiquidityEvent
// @Failure 503 {object} httputil.Response "History service not configured"
// @Router /api/v1/history/liquidity-events [get]
func (h *HistoryHandler) liquidityEvents(c *gin.Context) {
	pairID := c.Query("pairId")
	if pairID == "" {
		httputil.BadRequest(c, "pairId is required")
		return
	}

	events, err := h.aggregatorSvc.History().LiquidityEventsByPair(c.Request.Context(), pairID)
	if err != nil {
		h.handleHistoryError(c, err)
		return
	}
	httputil.Success(c, events)
}

// @Summary LP positions for an owner
// @Tags history
// @Produce json
// @Param owner query string true "Owner address"
// @Success 200 {array} history.PositionSnapshot
// @Failure 503 {object} httputil.Response "History service not configured"
// @Router /api/v1/history/positions [get]
func (h *HistoryHandler) positions(c *gin.Context) {
	owner := c.Query("owner")
	if owner == "" {
		httputil.BadRequest(c, "owner is required")
		return
	}

	positions, err := h.aggregatorSvc.History().PositionsByOwner(c.Request.Context(), owner)
	if err != nil {
		h.handleHistoryError(c, err)
		return
	}
	httputil.Success(c, positions)
}

func (h *HistoryHandler) handleHistoryError(c *gin.Context, err error) {
	if errors.Is(err, history.ErrDisabled) {
		httputil.ServiceUnavailable(c, "history service not configured")
		return
	}
	httputil.InternalError(c, "history lookup failed: "+err.Error())
}
