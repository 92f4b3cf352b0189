package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"colourwars/internal/logger"
	"colourwars/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	defaultLeaderboardLimit = 100
	maxLeaderboardLimit     = 500
)

// top players by rating
func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	limit = min(limit, maxLeaderboardLimit)

	entries, err := h.Accounts.Leaderboard(c.Request.Context(), limit)
	if errors.Is(err, service.ErrAccountsUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Leaderboard unavailable"})
		return
	}
	if err != nil {
		logger.Error("leaderboard query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
