package http

import (
	"github.com/gin-gonic/gin"

	"github.com/pelagos-labs/route-engine/internal/aggregator"
	"github.com/pelagos-labs/route-engine/internal/http/httputil"
)

type GatewayHandler struct {
	aggregatorSvc *aggregator.Service
}

func NewGatewayHandler(aggregatorSvc *aggregator.Service) *GatewayHandler {
	return &GatewayHandler{aggregatorSvc: aggregatorSvc}
}

func (h *GatewayHandler) Root() string {
	return "/gateway"
}

func (h *GatewayHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getStats)
	admin.POST("/reset", h.reset)
}

// @Summary Gateway status
// @Description Circuit-breaker state and queue counters for the chain request gateway.
// @Tags gateway
// @Produce json
// @Success 200 {object} gateway.Stats
// @Router /api/v1/gateway [get]
func (h *GatewayHandler) getStats(c *gin.Context) {
	httputil.Success(c, h.aggregatorSvc.GatewayStats())
}

// @Summary Reset the circuit breaker
// @Description Force-closes the gateway circuit breaker and clears the failure counter.
// @Tags gateway
// @Produce json
// @Success 200 {object} gateway.Stats
// @Router /api/v1/admin/gateway/reset [post]
func (h *GatewayHandler) reset(c *gin.Context) {
	h.aggregatorSvc.ResetGateway()
	httputil.Success(c, h.aggregatorSvc.GatewayStats())
}
