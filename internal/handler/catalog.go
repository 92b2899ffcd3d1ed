package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gamedex/internal/repository"
	"gamedex/internal/service"
)

type CatalogHandler struct {
	Service   *service.CollectionService
	Discovery *service.DiscoveryService
	Logger    *zap.Logger
}

func (h *CatalogHandler) Register(r *gin.Engine) {
	group := r.Group("/api/catalog")
	group.POST("/collect", h.runCollection)
	group.GET("/runs", h.listRuns)
	group.GET("/games", h.listGames)
	group.GET("/games/:app_id", h.getGame)
}

// @Summary Run a collection pass
// @Tags catalog
// @Param scope query string false "collection scope (listing|details|export|all)"
// @Param max_pages query int false "listing page cap (0 = until exhausted)"
// @Param batch_size query int false "per-title batch size"
// @Param export_path query string false "write the artifact to this path"
// @Success 200 {object} apiResponse
// @Router /api/catalog/collect [post]
func (h *CatalogHandler) runCollection(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	result, err := h.Service.Run(c.Request.Context(), service.RunOptions{
		Scope:      strings.TrimSpace(c.Query("scope")),
		MaxPages:   intQuery(c, "max_pages", 0),
		BatchSize:  intQuery(c, "batch_size", 0),
		ExportPath: strings.TrimSpace(c.Query("export_path")),
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("collection run failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if h.Discovery != nil {
		h.Discovery.Invalidate()
	}
	Ok(c, result, nil)
}

// @Summary List collection run states
// @Tags catalog
// @Success 200 {object} apiResponse
// @Router /api/catalog/runs [get]
func (h *CatalogHandler) listRuns(c *gin.Context) {
	if h.Service == nil || h.Service.Store == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	runs, err := h.Service.Store.ListCollectionRuns(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list collection runs failed", zap.Error(err))
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, runs, nil)
}

// @Summary List games
// @Tags catalog
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Param active query bool false "active"
// @Param name query string false "name contains"
// @Param order_by query string false "order by field"
// @Param ascending query bool false "ascending"
// @Success 200 {object} apiResponse
// @Router /api/catalog/games [get]
func (h *CatalogHandler) listGames(c *gin.Context) {
	if h.Service == nil || h.Service.Store == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListGamesParams{
		Limit:  limit,
		Offset: offset,
		Active: boolQueryPtr(c, "active"),
		Name:   strQueryPtr(c, "name"),
		OrderBy: parseOrder(c.Query("order_by"), map[string]string{
			"name":       "name",
			"app_id":     "app_id",
			"updated_at": "updated_at",
		}),
		Asc: boolQueryPtr(c, "ascending"),
	}
	games, err := h.Service.Store.ListGames(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Service.Store.CountGames(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, games, paginationMeta(limit, offset, total))
}

// @Summary Get one game with its per-title records
// @Tags catalog
// @Param app_id path int true "app id"
// @Success 200 {object} apiResponse
// @Router /api/catalog/games/{app_id} [get]
func (h *CatalogHandler) getGame(c *gin.Context) {
	if h.Service == nil || h.Service.Store == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	appID, err := strconv.ParseInt(c.Param("app_id"), 10, 64)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid app_id", nil)
		return
	}
	game, err := h.Service.Store.GetGame(c.Request.Context(), appID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if game == nil {
		Error(c, http.StatusNotFound, "game not found", nil)
		return
	}
	// The listing row alone says nothing about the title; attach whatever
	// per-title records collection has produced so far.
	game.Metadata, err = h.Service.Store.GetGameMetadata(c.Request.Context(), appID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	game.Storefront, err = h.Service.Store.GetStorefrontData(c.Request.Context(), appID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, game, nil)
}

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func boolQueryPtr(c *gin.Context, key string) *bool {
	if val := c.Query(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return &b
		}
	}
	return nil
}

func strQueryPtr(c *gin.Context, key string) *string {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		return &val
	}
	return nil
}

func parseOrder(value string, allow map[string]string) string {
	key := strings.TrimSpace(strings.ToLower(value))
	if key == "" {
		return ""
	}
	if mapped, ok := allow[key]; ok {
		return mapped
	}
	return ""
}

func paginationMeta(limit, offset int, total int64) map[string]any {
	if limit <= 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	hasNext := int64(offset+limit) < total
	return map[string]any{
		"limit":    limit,
		"offset":   offset,
		"total":    total,
		"has_next": hasNext,
	}
}
