package http

import (
	"colourwars/internal/http/handlers"
	"colourwars/internal/http/middleware"
	"colourwars/internal/service"
	"colourwars/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	AllowedOrigin   string
	ClientRateLimit float64
	ClientRateBurst int
	Version         string
}

// NewRouter wires every HTTP and websocket route onto a fresh gin engine.
func NewRouter(hub *ws.Hub, accounts *service.AccountService, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigin))

	h := handlers.New(accounts, hub, cfg.Version)
	wsHandler := ws.NewWSHandler(hub, cfg.AllowedOrigin, cfg.ClientRateLimit, cfg.ClientRateBurst)

	r.GET("/ws", wsHandler.HandleWS())
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/leaderboard", h.GetLeaderboard)
	api.GET("/me", middleware.JWTAuth(), h.MyProfile)

	return r
}
