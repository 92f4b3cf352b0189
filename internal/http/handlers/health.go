package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Health(c *gin.Context) {
	var rooms int64
	if h.Rooms != nil {
		rooms = h.Rooms.LiveRooms()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"version":    h.Version,
		"rooms":      rooms,
		"guest_mode": !h.Accounts.Available(),
	})
}
