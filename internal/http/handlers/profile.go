package handlers

import (
	"errors"
	"net/http"

	"colourwars/internal/logger"
	"colourwars/internal/service"

	"github.com/gin-gonic/gin"
)

// current user's account as the game sees it
func (h *Handler) MyProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	user, err := h.Accounts.Profile(c.Request.Context(), userID)
	switch {
	case errors.Is(err, service.ErrAccountsUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Account system unavailable"})
		return
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	case err != nil:
		logger.Error("profile lookup failed", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":                  user.ID,
			"username":            user.Username,
			"profile_picture_url": user.ProfilePictureURL,
			"rating":              user.Rating,
		},
	})
}
