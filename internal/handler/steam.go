package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gamedex/internal/client/steamweb"
	"gamedex/internal/fetcher"
)

// SteamHandler proxies player lookups to the official Steam Web API. A nil
// Client means no API key was configured; the route still registers and
// reports that instead of disappearing.
type SteamHandler struct {
	Client *steamweb.Client
	Logger *zap.Logger
}

func (h *SteamHandler) Register(r *gin.Engine) {
	r.GET("/api/steam/lookup-player", h.lookupPlayer)
}

// @Summary Look up a Steam player's owned games
// @Description Accepts a SteamID64, a vanity name or a profile URL.
// @Tags steam
// @Param player_id query string true "SteamID64, vanity name or profile URL"
// @Success 200 {object} apiResponse
// @Router /api/steam/lookup-player [get]
func (h *SteamHandler) lookupPlayer(c *gin.Context) {
	playerID := strings.TrimSpace(c.Query("player_id"))
	if playerID == "" {
		Error(c, http.StatusBadRequest, "player_id parameter is required", nil)
		return
	}
	if h.Client == nil {
		Error(c, http.StatusInternalServerError, "steam api not configured", nil)
		return
	}

	games, err := h.Client.OwnedGames(c.Request.Context(), playerID)
	if err != nil {
		h.writeLookupError(c, err)
		return
	}
	Ok(c, games, nil)
}

func (h *SteamHandler) writeLookupError(c *gin.Context, err error) {
	if h.Logger != nil {
		h.Logger.Warn("steam player lookup failed", zap.Error(err))
	}
	switch {
	case errors.Is(err, steamweb.ErrInvalidPlayerID):
		Error(c, http.StatusBadRequest, "invalid player_id", nil)
	case errors.Is(err, steamweb.ErrUnresolvedVanity):
		Error(c, http.StatusNotFound, "player not found", nil)
	case fetcher.IsNotFound(err):
		Error(c, http.StatusNotFound, "player not found", nil)
	default:
		var apiErr *fetcher.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden {
			Error(c, http.StatusServiceUnavailable, "steam api access denied", nil)
			return
		}
		Error(c, http.StatusServiceUnavailable, "steam api error", nil)
	}
}
