package ws

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"colourwars/internal/game"
	"colourwars/internal/logger"
	"colourwars/internal/metrics"
	"colourwars/internal/service"
)

const roomCodeLength = 6

// Timer is the handle returned by a Scheduler; *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Scheduler arms single-shot callbacks. Tests swap in a manual one.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Options struct {
	Rows        int
	Cols        int
	TurnBudget  time.Duration
	FinishGrace time.Duration
	AIMoveDelay time.Duration

	// Forming rooms older than StaleRoomAge are dropped every SweepInterval.
	StaleRoomAge  time.Duration
	SweepInterval time.Duration

	Scheduler Scheduler
	Now       func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Rows < 4 {
		o.Rows = game.DefaultRows
	}
	if o.Cols < 4 {
		o.Cols = game.DefaultCols
	}
	if o.TurnBudget <= 0 {
		o.TurnBudget = 300 * time.Second
	}
	if o.FinishGrace <= 0 {
		o.FinishGrace = 5 * time.Second
	}
	if o.AIMoveDelay <= 0 {
		o.AIMoveDelay = 700 * time.Millisecond
	}
	if o.StaleRoomAge <= 0 {
		o.StaleRoomAge = time.Hour
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = 10 * time.Minute
	}
	if o.Scheduler == nil {
		o.Scheduler = realScheduler{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// events consumed by Hub.Run
type (
	registerEvent   struct{ client *Client }
	unregisterEvent struct{ client *Client }
	inboundEvent    struct {
		client *Client
		msg    Message
	}
	timerEvent struct {
		code string
		seq  uint64
	}
	identityEvent struct {
		client *Client
		userID int64
		name   string
	}
	settledEvent struct {
		recipients []*Client
		payload    ratingResultsPayload
	}
	callEvent struct {
		fn   func()
		done chan struct{}
	}
)

// Hub owns every room, queue and client record. All of it is mutated on the
// Run goroutine only; timers and lookups post events back to it.
type Hub struct {
	opts     Options
	accounts *service.AccountService
	log      *slog.Logger

	events   chan any
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	bg       sync.WaitGroup

	clients map[*Client]bool
	rooms   map[string]*Room
	queues  map[game.Mode]*Queue

	liveRooms atomic.Int64
}

func NewHub(accounts *service.AccountService, opts Options) *Hub {
	if accounts == nil {
		accounts = service.NewAccountService(nil)
	}
	return &Hub{
		opts:     opts.withDefaults(),
		accounts: accounts,
		log:      logger.With("component", "hub"),
		events:   make(chan any, 1024),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		clients:  make(map[*Client]bool),
		rooms:    make(map[string]*Room),
		queues: map[game.Mode]*Queue{
			game.TwoPlayer:  NewQueue(game.TwoPlayer),
			game.FourPlayer: NewQueue(game.FourPlayer),
		},
	}
}

// Run is the dispatcher loop. It returns after Stop.
func (h *Hub) Run() {
	defer close(h.done)

	sweep := time.NewTicker(h.opts.SweepInterval)
	defer sweep.Stop()

	for {
		select {
		case ev := <-h.events:
			h.dispatch(ev)
		case <-sweep.C:
			h.sweepStaleRooms()
		case <-h.quit:
			h.shutdown()
			return
		}
	}
}

// Stop ends Run and waits for in-flight settlements.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.done
	h.bg.Wait()
}

// post hands an event to the dispatcher; it is dropped once the hub stopped.
func (h *Hub) post(ev any) bool {
	select {
	case h.events <- ev:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) Register(c *Client) {
	h.post(registerEvent{client: c})
}

func (h *Hub) Unregister(c *Client) {
	h.post(unregisterEvent{client: c})
}

// Call runs fn on the dispatcher and waits for it. fn may read hub state freely.
func (h *Hub) Call(fn func()) bool {
	done := make(chan struct{})
	if !h.post(callEvent{fn: fn, done: done}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-h.done:
		return false
	}
}

// LiveRooms is safe to call from any goroutine.
func (h *Hub) LiveRooms() int64 {
	return h.liveRooms.Load()
}

func (h *Hub) dispatch(ev any) {
	switch e := ev.(type) {
	case registerEvent:
		h.clients[e.client] = true
		metrics.ConnectionsActive.Inc()
		h.log.Debug("client registered", "client", e.client.ID)
	case unregisterEvent:
		h.handleDisconnect(e.client)
	case inboundEvent:
		if h.clients[e.client] {
			h.handleMessage(e.client, e.msg)
		}
	case timerEvent:
		if r, ok := h.rooms[e.code]; ok {
			r.onTimer(e.seq)
		}
	case identityEvent:
		h.applyIdentity(e)
	case settledEvent:
		for _, c := range e.recipients {
			if h.clients[c] {
				h.send(c, MsgRatingResults, e.payload)
			}
		}
	case callEvent:
		e.fn()
		close(e.done)
	default:
		h.log.Error("unknown hub event", "event", ev)
	}
}

func (h *Hub) handleMessage(c *Client, msg Message) {
	switch msg.Type {
	case MsgCreateRoom, MsgCreateRoom4:
		h.createRoom(c, modeFor(msg.Type))
	case MsgJoinRoom, MsgJoinRoom4:
		var req roomRequest
		decodePayload(msg, &req)
		h.joinRoom(c, modeFor(msg.Type), req.Code)
	case MsgFindMatch, MsgFindMatch4:
		h.findMatch(c, modeFor(msg.Type))
	case MsgCancelMatchmaking, MsgCancelMatchmaking4:
		h.cancelMatchmaking(c, modeFor(msg.Type))
	case MsgMove:
		var req moveRequest
		if !decodePayload(msg, &req) || req.Row == nil || req.Col == nil {
			return
		}
		h.submitMove(c, req)
	case MsgAuthenticate:
		var req authRequest
		decodePayload(msg, &req)
		h.authenticate(c, req.Token)
	default:
		h.send(c, MsgError, textPayload{Message: "unknown message type"})
	}
}

// send never blocks the dispatcher: a client that cannot keep up loses the frame.
func (h *Hub) send(c *Client, msgType string, payload any) {
	if c == nil || c.closed {
		return
	}
	b, err := encode(msgType, payload)
	if err != nil {
		h.log.Error("encode failed", "type", msgType, "error", err)
		return
	}
	select {
	case c.Send <- b:
	default:
		h.log.Warn("send buffer full, dropping frame", "client", c.ID, "type", msgType)
	}
}

// busy reports whether c already holds a seat in a game that is not over.
func (h *Hub) busy(c *Client) bool {
	return c.room != nil && c.room.State != StateFinished
}

func (h *Hub) leaveQueue(c *Client) {
	if c.queue == nil {
		return
	}
	q := c.queue
	q.Remove(c)
	c.queue = nil
	metrics.QueueLength.WithLabelValues(q.mode.String()).Set(float64(q.Len()))
}

func (h *Hub) newRoom(mode game.Mode) *Room {
	code := newRoomCode()
	for h.rooms[code] != nil {
		code = newRoomCode()
	}
	r := newRoom(h, code, mode)
	h.rooms[code] = r
	h.liveRooms.Add(1)
	metrics.RoomsActive.Inc()
	return r
}

func (h *Hub) createRoom(c *Client, mode game.Mode) {
	if h.busy(c) {
		h.send(c, MsgError, textPayload{Message: ErrTextAlreadyPlaying})
		return
	}
	h.leaveQueue(c)

	r := h.newRoom(mode)
	seat := r.addSeat(c)
	r.log.Info("room created", "client", c.ID, "mode", mode.String())
	h.send(c, MsgRoomCreated, roomCreatedPayload{Code: r.Code, Player: seat.Identity, Mode: mode.String()})
}

func (h *Hub) joinRoom(c *Client, mode game.Mode, rawCode string) {
	code, ok := normalizeCode(rawCode)
	if !ok {
		h.send(c, MsgJoinError, textPayload{Message: ErrTextInvalidCode})
		return
	}
	r := h.rooms[code]
	if r == nil || r.Mode != mode || r.State == StateReaped {
		h.send(c, MsgJoinError, textPayload{Message: ErrTextRoomNotFound})
		return
	}

	if seat := r.seatOf(c); seat != nil {
		if r.State == StateForming && seat.Identity == game.Red {
			h.send(c, MsgJoinError, textPayload{Message: ErrTextOwnRoom})
			return
		}
		// repeated join from a seated client: resend what it missed
		h.send(c, MsgJoinedRoom, joinedRoomPayload{Code: r.Code, Player: seat.Identity, Mode: mode.String()})
		if r.State != StateForming {
			h.send(c, MsgGameState, r.snapshot())
		}
		return
	}

	if r.State != StateForming || len(r.Seats) >= mode.Seats() {
		h.send(c, MsgJoinError, textPayload{Message: ErrTextRoomFull})
		return
	}
	if h.busy(c) {
		h.send(c, MsgError, textPayload{Message: ErrTextAlreadyPlaying})
		return
	}
	if r.seatOfUser(c.UserID, c) != nil {
		h.send(c, MsgJoinError, textPayload{Message: ErrTextSameAccount})
		return
	}
	h.leaveQueue(c)

	seat := r.addSeat(c)
	h.send(c, MsgJoinedRoom, joinedRoomPayload{Code: r.Code, Player: seat.Identity, Mode: mode.String()})
	r.broadcast(MsgPlayerJoined, playerJoinedPayload{Code: r.Code, Count: len(r.Seats), Needed: mode.Seats()})

	if len(r.Seats) == mode.Seats() {
		r.start()
	}
}

func (h *Hub) findMatch(c *Client, mode game.Mode) {
	if h.busy(c) {
		h.send(c, MsgError, textPayload{Message: ErrTextAlreadyPlaying})
		return
	}
	q := h.queues[mode]
	if q.HasUser(c.UserID, c) {
		h.send(c, MsgJoinError, textPayload{Message: ErrTextAlreadyQueued})
		return
	}
	if c.queue != nil && c.queue != q {
		h.leaveQueue(c)
	}

	pos, _ := q.Join(c)
	c.queue = q
	metrics.QueueLength.WithLabelValues(mode.String()).Set(float64(q.Len()))
	h.send(c, MsgMatchmakingStatus, matchmakingStatusPayload{Mode: mode.String(), Searching: true, Position: pos})

	if !q.Ready() {
		return
	}
	batch := q.Take()
	metrics.QueueLength.WithLabelValues(mode.String()).Set(float64(q.Len()))

	r := h.newRoom(mode)
	for _, p := range batch {
		p.queue = nil
		r.addSeat(p)
	}
	for _, seat := range r.Seats {
		h.send(seat.Client, MsgMatched, matchedPayload{Code: r.Code, Player: seat.Identity, Mode: mode.String()})
	}
	r.log.Info("matched from queue", "mode", mode.String())
	r.start()

	// positions shifted for whoever is still waiting
	for i, w := range q.waiting {
		h.send(w, MsgMatchmakingStatus, matchmakingStatusPayload{Mode: mode.String(), Searching: true, Position: i + 1})
	}
}

func (h *Hub) cancelMatchmaking(c *Client, mode game.Mode) {
	q := h.queues[mode]
	if c.queue != q {
		return
	}
	h.leaveQueue(c)
	h.send(c, MsgMatchmakingStatus, matchmakingStatusPayload{Mode: mode.String(), Searching: false})
}

func (h *Hub) submitMove(c *Client, req moveRequest) {
	code, ok := normalizeCode(req.Code)
	if !ok {
		return
	}
	r := h.rooms[code]
	if r == nil {
		return
	}
	r.submitMove(c, *req.Row, *req.Col)
}

func (h *Hub) authenticate(c *Client, token string) {
	userID, err := service.ParseJWT(token)
	if err != nil {
		h.send(c, MsgAuthError, textPayload{Message: "Invalid or expired token"})
		return
	}

	h.bg.Add(1)
	go func() {
		defer h.bg.Done()
		name := h.accounts.DisplayName(context.Background(), userID)
		h.post(identityEvent{client: c, userID: userID, name: name})
	}()
}

func (h *Hub) applyIdentity(e identityEvent) {
	c := e.client
	// the connection may have gone while the lookup ran
	if !h.clients[c] {
		return
	}
	r := c.room
	if r != nil && r.State != StateFinished && r.seatOfUser(e.userID, c) != nil {
		h.send(c, MsgAuthError, textPayload{Message: ErrTextSameAccount})
		return
	}
	c.UserID = e.userID
	c.Name = e.name

	if r != nil && r.State != StateFinished {
		if seat := r.seatOf(c); seat != nil {
			seat.UserID = e.userID
			seat.Name = e.name
			if r.State == StateActive {
				r.broadcast(MsgGameState, r.snapshot())
			}
		}
	}
	h.send(c, MsgAuthenticated, authenticatedPayload{UserID: e.userID, Name: e.name})
}

func (h *Hub) handleDisconnect(c *Client) {
	if !h.clients[c] {
		return
	}
	h.leaveQueue(c)
	if r := c.room; r != nil && r.State != StateFinished {
		r.terminate(c, "disconnect")
	}

	delete(h.clients, c)
	c.room = nil
	c.closed = true
	close(c.Send)
	metrics.ConnectionsActive.Dec()
	h.log.Debug("client unregistered", "client", c.ID)
}

// removeRoom drops a room from the index; its timer must already be cancelled.
func (h *Hub) removeRoom(r *Room) {
	if h.rooms[r.Code] != r {
		return
	}
	delete(h.rooms, r.Code)
	r.State = StateReaped
	for _, seat := range r.Seats {
		if seat.Client != nil && seat.Client.room == r {
			seat.Client.room = nil
		}
	}
	h.liveRooms.Add(-1)
	metrics.RoomsActive.Dec()
}

func (h *Hub) sweepStaleRooms() {
	cutoff := h.opts.Now().Add(-h.opts.StaleRoomAge)
	for _, r := range h.rooms {
		if r.State == StateForming && r.CreatedAt.Before(cutoff) {
			r.log.Info("dropping stale room", "age", h.opts.Now().Sub(r.CreatedAt))
			r.broadcast(MsgError, textPayload{Message: ErrTextRoomExpired})
			r.cancelTimer()
			h.removeRoom(r)
			metrics.GamesTerminated.WithLabelValues("stale").Inc()
		}
	}
}

func (h *Hub) shutdown() {
	for _, r := range h.rooms {
		r.cancelTimer()
	}
	for c := range h.clients {
		c.closed = true
		close(c.Send)
		delete(h.clients, c)
	}
	h.log.Info("hub stopped", "rooms", len(h.rooms))
}
