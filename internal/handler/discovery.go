package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gamedex/internal/service"
)

type DiscoveryHandler struct {
	Service *service.DiscoveryService
	Logger  *zap.Logger
}

func (h *DiscoveryHandler) Register(r *gin.Engine) {
	r.GET("/discovery/games/master.json", h.masterJSON)
}

// @Summary Get the master game list
// @Description Serves the same camelCase array the export artifact holds,
// @Description cached for the configured interval.
// @Tags discovery
// @Success 200 {array} export.GameRecord
// @Router /discovery/games/master.json [get]
func (h *DiscoveryHandler) masterJSON(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	records, err := h.Service.MasterJSON(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("master.json build failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	// Raw array, not the envelope: downstream consumers read the same
	// shape from the file artifact and from this endpoint.
	c.JSON(http.StatusOK, records)
}
