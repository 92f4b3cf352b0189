package ws

import (
	"log/slog"
	"time"

	"colourwars/internal/game"
	"colourwars/internal/logger"
	"colourwars/internal/metrics"
)

const (
	StateForming  = "forming"
	StateActive   = "active"
	StateFinished = "finished"
	StateReaped   = "reaped"
)

type timerKind int

const (
	timerNone timerKind = iota
	timerTurn
	timerAIMove
	timerReap
)

// Seat is one player slot. UserID 0 is a guest.
type Seat struct {
	Identity     game.PlayerID
	Client       *Client
	UserID       int64
	Name         string
	Remaining    time.Duration
	AIControlled bool
	Eliminated   bool
	Moved        bool
}

// Room is the aggregate for one game. Only the hub goroutine touches it.
type Room struct {
	Code             string
	Mode             game.Mode
	Board            *game.Board
	Seats            []*Seat
	Turn             int
	TurnStarted      time.Time
	Winner           game.PlayerID
	EliminationOrder [][]game.PlayerID
	State            string
	CreatedAt        time.Time

	hub       *Hub
	log       *slog.Logger
	timer     Timer
	timerSeq  uint64
	timerKind timerKind
	settled   bool
}

func newRoom(h *Hub, code string, mode game.Mode) *Room {
	return &Room{
		Code:      code,
		Mode:      mode,
		Board:     game.NewGameBoard(mode, h.opts.Rows, h.opts.Cols),
		State:     StateForming,
		CreatedAt: h.opts.Now(),
		hub:       h,
		log:       logger.ForRoom(code),
	}
}

// addSeat gives c the next identity in seat order.
func (r *Room) addSeat(c *Client) *Seat {
	seat := &Seat{
		Identity:  game.PlayerID(len(r.Seats) + 1),
		Client:    c,
		UserID:    c.UserID,
		Name:      c.Name,
		Remaining: r.hub.opts.TurnBudget,
	}
	r.Seats = append(r.Seats, seat)
	c.room = r
	return seat
}

func (r *Room) seatOf(c *Client) *Seat {
	for _, s := range r.Seats {
		if s.Client == c {
			return s
		}
	}
	return nil
}

// seatOfUser finds the seat held by a logged-in account; guests never match.
func (r *Room) seatOfUser(userID int64, except *Client) *Seat {
	if userID == 0 {
		return nil
	}
	for _, s := range r.Seats {
		if s.Client != except && s.UserID == userID {
			return s
		}
	}
	return nil
}

func (r *Room) current() *Seat {
	return r.Seats[r.Turn]
}

func (r *Room) identities() []game.PlayerID {
	ids := make([]game.PlayerID, len(r.Seats))
	for i, s := range r.Seats {
		ids[i] = s.Identity
	}
	return ids
}

func (r *Room) start() {
	r.State = StateActive
	r.Turn = 0
	r.TurnStarted = r.hub.opts.Now()
	r.armTurn()
	r.log.Info("game started", "mode", r.Mode.String(), "players", len(r.Seats))
	r.broadcast(MsgGameState, r.snapshot())
}

func (r *Room) broadcast(msgType string, payload any) {
	for _, s := range r.Seats {
		if s.Client != nil {
			r.hub.send(s.Client, msgType, payload)
		}
	}
}

// arm replaces the room's single timer slot.
func (r *Room) arm(d time.Duration, kind timerKind) {
	r.cancelTimer()
	r.timerSeq++
	seq, code, h := r.timerSeq, r.Code, r.hub
	r.timerKind = kind
	r.timer = h.opts.Scheduler.AfterFunc(d, func() {
		h.post(timerEvent{code: code, seq: seq})
	})
}

func (r *Room) cancelTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.timerKind = timerNone
}

// armTurn starts the clock for the current seat, or schedules the bot if it owns the seat.
func (r *Room) armTurn() {
	seat := r.current()
	if seat.AIControlled {
		r.arm(r.hub.opts.AIMoveDelay, timerAIMove)
		return
	}
	r.arm(seat.Remaining, timerTurn)
}

func (r *Room) onTimer(seq uint64) {
	// a newer timer replaced this one
	if seq != r.timerSeq {
		return
	}
	kind := r.timerKind
	r.timer = nil
	r.timerKind = timerNone

	switch kind {
	case timerTurn:
		if r.State != StateActive {
			return
		}
		seat := r.current()
		r.chargeClock(seat)
		seat.Remaining = 0
		r.takeOver(seat)
		r.playAI(seat)
	case timerAIMove:
		if r.State != StateActive {
			return
		}
		r.playAI(r.current())
	case timerReap:
		r.hub.removeRoom(r)
		r.log.Debug("room reaped")
	}
}

// chargeClock deducts the time spent on the current turn. The clock never goes up.
func (r *Room) chargeClock(seat *Seat) {
	now := r.hub.opts.Now()
	elapsed := now.Sub(r.TurnStarted)
	if elapsed > 0 {
		seat.Remaining -= elapsed
	}
	if seat.Remaining < 0 {
		seat.Remaining = 0
	}
	r.TurnStarted = now
}

func (r *Room) takeOver(seat *Seat) {
	if seat.AIControlled {
		return
	}
	seat.AIControlled = true
	metrics.AITakeovers.Inc()
	r.log.Info("clock expired, bot takes over", "player", seat.Identity.String())
	r.broadcast(MsgPlayerTimedOut, playerPayload{Code: r.Code, Player: seat.Identity})
}

func (r *Room) submitMove(c *Client, row, col int) {
	if r.State != StateActive {
		return
	}
	seat := r.seatOf(c)
	if seat == nil || seat != r.current() || seat.AIControlled {
		return
	}

	r.chargeClock(seat)
	if seat.Remaining <= 0 {
		r.takeOver(seat)
		r.playAI(seat)
		return
	}

	if !r.Board.ApplyMove(row, col, seat.Identity) {
		return
	}
	metrics.MovesTotal.WithLabelValues(metrics.ActorHuman).Inc()
	r.afterMove(seat)
}

func (r *Room) playAI(seat *Seat) {
	pos, ok := game.ChooseMove(r.Board, seat.Identity)
	if !ok || !r.Board.ApplyMove(pos.Row, pos.Col, seat.Identity) {
		// nothing left to play for this seat
		r.advanceTurn()
		return
	}
	metrics.MovesTotal.WithLabelValues(metrics.ActorAI).Inc()
	r.afterMove(seat)
}

func (r *Room) afterMove(seat *Seat) {
	seat.Moved = true

	opts := game.ResolveOptions{Terminate: r.terminationCheck()}
	if r.Mode == game.FourPlayer {
		opts.AfterPass = func(*game.Board) { r.recordEliminations(game.Empty) }
	}
	outcome := r.Board.Resolve(seat.Identity, opts)
	if outcome.Capped {
		r.log.Warn("cascade hit the pass guard", "player", seat.Identity.String(), "passes", outcome.Passes)
	}
	if outcome.Winner != game.Empty {
		r.recordEliminations(outcome.Winner)
		r.finish(outcome.Winner)
		return
	}
	if r.Mode == game.FourPlayer {
		r.recordEliminations(game.Empty)
	}
	r.advanceTurn()
}

func (r *Room) terminationCheck() func(*game.Board) game.PlayerID {
	if r.Mode == game.TwoPlayer {
		first, second := r.Seats[0], r.Seats[1]
		return func(b *game.Board) game.PlayerID {
			return b.DuelWinner(first.Identity, second.Identity, first.Moved, second.Moved)
		}
	}
	ids := r.identities()
	return func(b *game.Board) game.PlayerID {
		return b.LastSurvivor(ids)
	}
}

// recordEliminations appends every seat that newly dropped to zero orbs as one tie group.
func (r *Room) recordEliminations(winner game.PlayerID) {
	var group []game.PlayerID
	for _, s := range r.Seats {
		if s.Eliminated || s.Identity == winner {
			continue
		}
		if r.Board.Orbs(s.Identity) == 0 {
			s.Eliminated = true
			group = append(group, s.Identity)
		}
	}
	if len(group) > 0 {
		r.EliminationOrder = append(r.EliminationOrder, group)
	}
}

// advanceTurn moves to the next seat that still has orbs, wrapping around.
func (r *Room) advanceTurn() {
	n := len(r.Seats)
	for i := 1; i <= n; i++ {
		next := (r.Turn + i) % n
		s := r.Seats[next]
		if !s.Eliminated && r.Board.Orbs(s.Identity) > 0 {
			r.Turn = next
			break
		}
	}
	r.TurnStarted = r.hub.opts.Now()
	r.armTurn()
	r.broadcast(MsgGameState, r.snapshot())
}

func (r *Room) finish(winner game.PlayerID) {
	r.Winner = winner
	r.State = StateFinished
	r.cancelTimer()
	metrics.GamesFinished.WithLabelValues(r.Mode.String()).Inc()
	r.log.Info("game finished", "winner", winner.String())

	r.broadcast(MsgGameState, r.snapshot())
	r.hub.settle(r)
	r.arm(r.hub.opts.FinishGrace, timerReap)
}

// terminate tears down an unfinished room because leaver disconnected.
func (r *Room) terminate(leaver *Client, reason string) {
	seat := r.seatOf(leaver)
	r.cancelTimer()
	if seat != nil {
		seat.Client = nil
		r.broadcast(MsgPlayerLeft, playerPayload{Code: r.Code, Player: seat.Identity})
		if r.Mode == game.TwoPlayer {
			r.broadcast(MsgOpponentLeft, playerPayload{Code: r.Code, Player: seat.Identity})
		}
	}
	r.hub.removeRoom(r)
	metrics.GamesTerminated.WithLabelValues(reason).Inc()
	r.log.Info("room terminated", "reason", reason, "client", leaver.ID)
}

func (r *Room) snapshot() gameStatePayload {
	players := make([]seatView, len(r.Seats))
	for i, s := range r.Seats {
		players[i] = seatView{
			Player:       s.Identity,
			Name:         s.Name,
			RemainingMs:  s.Remaining.Milliseconds(),
			AIControlled: s.AIControlled,
			Eliminated:   s.Eliminated,
			Orbs:         r.Board.Orbs(s.Identity),
		}
	}
	cells := make([][]game.Cell, r.Board.Rows)
	for i := range r.Board.Cells {
		cells[i] = append([]game.Cell(nil), r.Board.Cells[i]...)
	}
	order := make([][]game.PlayerID, len(r.EliminationOrder))
	copy(order, r.EliminationOrder)

	current := game.Empty
	if r.State == StateActive && len(r.Seats) > 0 {
		current = r.current().Identity
	}
	return gameStatePayload{
		Code:             r.Code,
		Mode:             r.Mode.String(),
		State:            r.State,
		Rows:             r.Board.Rows,
		Cols:             r.Board.Cols,
		Board:            cells,
		CurrentPlayer:    current,
		TurnStartedAt:    r.TurnStarted.UnixMilli(),
		Winner:           r.Winner,
		Players:          players,
		EliminationOrder: order,
	}
}
