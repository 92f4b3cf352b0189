package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "colourwars",
		Name:      "rooms_active",
		Help:      "Rooms that have not been reaped yet.",
	})

	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "colourwars",
		Name:      "connections_active",
		Help:      "Open websocket connections registered with the hub.",
	})

	QueueLength = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "colourwars",
		Name:      "matchmaking_queue_length",
		Help:      "Players waiting in a matchmaking queue.",
	}, []string{"mode"})

	MovesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "colourwars",
		Name:      "moves_total",
		Help:      "Applied moves by who played them.",
	}, []string{"actor"})

	GamesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "colourwars",
		Name:      "games_finished_total",
		Help:      "Games that reached a winner.",
	}, []string{"mode"})

	GamesTerminated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "colourwars",
		Name:      "games_terminated_total",
		Help:      "Rooms torn down before a winner, by reason.",
	}, []string{"reason"})

	AITakeovers = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "colourwars",
		Name:      "ai_takeovers_total",
		Help:      "Seats handed to the bot after their clock ran out.",
	})

	Settlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "colourwars",
		Name:      "settlements_total",
		Help:      "Rating settlements by outcome (ok, degraded, skipped).",
	}, []string{"outcome"})
)

const (
	ActorHuman = "human"
	ActorAI    = "ai"

	SettlementOK       = "ok"
	SettlementDegraded = "degraded"
	SettlementSkipped  = "skipped"
)
