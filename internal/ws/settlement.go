package ws

import (
	"context"
	"time"

	"colourwars/internal/domain"
	"colourwars/internal/game"
	"colourwars/internal/logger"
	"colourwars/internal/metrics"
	"colourwars/internal/rating"
)

const settlementTimeout = 15 * time.Second

type settleSeat struct {
	identity game.PlayerID
	userID   int64
	name     string
}

// settlement is the immutable copy of a finished room handed to the settling goroutine.
type settlement struct {
	code       string
	seats      []settleSeat
	winner     int
	eliminated [][]int
}

// settle runs once per room. The ratings are fetched and written off the dispatcher;
// the results come back as a settledEvent.
func (h *Hub) settle(r *Room) {
	if r.settled {
		return
	}
	r.settled = true

	s := settlement{code: r.Code, winner: -1}
	var recipients []*Client
	for i, seat := range r.Seats {
		s.seats = append(s.seats, settleSeat{identity: seat.Identity, userID: seat.UserID, name: seat.Name})
		if seat.Identity == r.Winner {
			s.winner = i
		}
		if seat.Client != nil {
			recipients = append(recipients, seat.Client)
		}
	}
	for _, group := range r.EliminationOrder {
		idx := make([]int, 0, len(group))
		for _, id := range group {
			idx = append(idx, int(id)-1)
		}
		s.eliminated = append(s.eliminated, idx)
	}

	winner := r.Winner
	h.bg.Add(1)
	go func() {
		defer h.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), settlementTimeout)
		defer cancel()

		results := h.computeSettlement(ctx, s)
		h.post(settledEvent{
			recipients: recipients,
			payload:    ratingResultsPayload{Code: s.code, Winner: winner, Results: results},
		})
	}()
}

// computeSettlement never fails: collaborator errors degrade to empty or unpersisted results.
func (h *Hub) computeSettlement(ctx context.Context, s settlement) []domain.RatingChange {
	log := logger.ForRoom(s.code)
	results := []domain.RatingChange{}
	if s.winner < 0 {
		log.Error("settlement without a winner seat")
		metrics.Settlements.WithLabelValues(metrics.SettlementSkipped).Inc()
		return results
	}

	var ids []int64
	for _, seat := range s.seats {
		if seat.userID > 0 {
			ids = append(ids, seat.userID)
		}
	}
	if len(ids) == 0 {
		metrics.Settlements.WithLabelValues(metrics.SettlementSkipped).Inc()
		return results
	}

	stored, err := h.accounts.Ratings(ctx, ids)
	if err != nil {
		log.Warn("rating settlement degraded", "error", err)
		metrics.Settlements.WithLabelValues(metrics.SettlementDegraded).Inc()
		return results
	}

	n := len(s.seats)
	prior := make([]float64, n)
	known := make([]bool, n)
	for i, seat := range s.seats {
		if seat.userID > 0 {
			prior[i] = float64(stored[seat.userID])
			known[i] = true
		}
	}
	prior = rating.FillGuests(prior, known)

	placement, groups := rating.Standings(s.winner, s.eliminated)
	placement, groups = completeStandings(n, placement, groups)
	deltas := rating.Deltas(placement, prior, groups)

	outcome := metrics.SettlementOK
	for i, seat := range s.seats {
		if seat.userID <= 0 {
			continue
		}
		old := stored[seat.userID]
		change := domain.RatingChange{
			Player:    int8(seat.identity),
			UserID:    seat.userID,
			Name:      seat.name,
			OldRating: old,
			Delta:     deltas[i],
		}
		updated, err := h.accounts.ApplyDelta(ctx, seat.userID, deltas[i])
		if err != nil {
			log.Warn("rating write failed", "user", seat.userID, "error", err)
			outcome = metrics.SettlementDegraded
			change.NewRating = max(0, old+deltas[i])
		} else {
			change.NewRating = updated
			change.Persisted = true
		}
		results = append(results, change)
	}
	metrics.Settlements.WithLabelValues(outcome).Inc()
	log.Info("ratings settled", "seats", len(results), "outcome", outcome)
	return results
}

// completeStandings puts seats missing from the elimination history into one last group.
func completeStandings(n int, placement []int, groups [][]int) ([]int, [][]int) {
	seen := make([]bool, n)
	for _, i := range placement {
		if i >= 0 && i < n {
			seen[i] = true
		}
	}
	var rest []int
	for i := 0; i < n; i++ {
		if !seen[i] {
			rest = append(rest, i)
		}
	}
	if len(rest) == 0 {
		return placement, groups
	}
	return append(placement, rest...), append(groups, rest)
}
