package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// WSHandler upgrades /ws requests and hands the connection to the hub.
type WSHandler struct {
	Hub           *Hub
	AllowedOrigin string
	// per-connection inbound frames per second; zero disables the limit
	RateLimit float64
	RateBurst int
}

func NewWSHandler(hub *Hub, allowedOrigin string, rateLimit float64, rateBurst int) *WSHandler {
	return &WSHandler{
		Hub:           hub,
		AllowedOrigin: allowedOrigin,
		RateLimit:     rateLimit,
		RateBurst:     rateBurst,
	}
}

func (h *WSHandler) HandleWS() gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if h.AllowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == h.AllowedOrigin
		},
	}

	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.Hub.log.Warn("websocket upgrade failed", "error", err)
			return
		}

		var limiter *rate.Limiter
		if h.RateLimit > 0 {
			limiter = rate.NewLimiter(rate.Limit(h.RateLimit), max(1, h.RateBurst))
		}
		client := NewClient(h.Hub, conn, limiter)
		h.Hub.Register(client)

		// ?token= authenticates before anything the client sends
		if token := c.Query("token"); token != "" {
			payload, _ := json.Marshal(authRequest{Token: token})
			h.Hub.post(inboundEvent{client: client, msg: Message{Type: MsgAuthenticate, Payload: payload}})
		}

		go client.Run()
	}
}
