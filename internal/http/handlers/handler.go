package handlers

import (
	"colourwars/internal/http/middleware"
	"colourwars/internal/service"

	"github.com/gin-gonic/gin"
)

// RoomCounter is the part of the hub the health check reads.
type RoomCounter interface {
	LiveRooms() int64
}

type Handler struct {
	Accounts *service.AccountService
	Rooms    RoomCounter
	Version  string
}

func New(accounts *service.AccountService, rooms RoomCounter, version string) *Handler {
	return &Handler{Accounts: accounts, Rooms: rooms, Version: version}
}

func getUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}
