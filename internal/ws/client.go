package ws

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"colourwars/internal/domain"
	"colourwars/internal/game"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

var roomCodePattern = regexp.MustCompile(`^[A-Z0-9]{4,10}$`)

// Client is one websocket connection. The pumps own conn; UserID and the fields
// after it belong to the hub goroutine.
type Client struct {
	ID      string
	Send    chan []byte
	hub     *Hub
	conn    *websocket.Conn
	limiter *rate.Limiter

	UserID int64
	Name   string
	room   *Room
	queue  *Queue
	closed bool
}

// NewClient wraps conn. limiter may be nil to accept every frame.
func NewClient(hub *Hub, conn *websocket.Conn, limiter *rate.Limiter) *Client {
	return &Client{
		ID:      uuid.NewString(),
		Send:    make(chan []byte, sendBuffer),
		hub:     hub,
		conn:    conn,
		limiter: limiter,
		Name:    domain.GuestName,
	}
}

// Run blocks until the connection is gone, then unregisters the client.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("read failed", "client", c.ID, "error", err)
			}
			return
		}
		if c.limiter != nil && !c.limiter.Allow() {
			continue
		}
		c.hub.Receive(c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.log.Debug("write failed", "client", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Receive decodes one inbound frame and queues it for the hub. Malformed frames are dropped.
func (h *Hub) Receive(c *Client, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
		h.log.Debug("dropping malformed frame", "client", c.ID)
		return
	}
	h.post(inboundEvent{client: c, msg: msg})
}

func decodePayload(msg Message, v any) bool {
	if len(msg.Payload) == 0 {
		return false
	}
	return json.Unmarshal(msg.Payload, v) == nil
}

// normalizeCode trims and upper-cases a room code; ok is false for codes that cannot exist.
func normalizeCode(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	return code, roomCodePattern.MatchString(code)
}

func newRoomCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:roomCodeLength]
}

// modeFor maps a message type to the mode it addresses.
func modeFor(msgType string) game.Mode {
	switch msgType {
	case MsgCreateRoom4, MsgJoinRoom4, MsgFindMatch4, MsgCancelMatchmaking4:
		return game.FourPlayer
	default:
		return game.TwoPlayer
	}
}
