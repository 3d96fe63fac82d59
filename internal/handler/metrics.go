package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"heist-server/internal/service"
)

var (
	sessionsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heist_sessions_started_total",
		Help: "Total number of newly created or reset player sessions.",
	})

	puzzleSolvesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heist_puzzle_solves_total",
			Help: "Total number of puzzle solve submissions by outcome.",
		},
		[]string{"outcome"},
	)

	alarmEscalationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heist_alarm_escalations_total",
		Help: "Total number of alarm level escalations.",
	})

	playersCaughtTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heist_players_caught_total",
		Help: "Total number of players caught at maximum alarm level.",
	})

	missionCompletionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "heist_mission_completions_total",
		Help: "Total number of missions completed with rewards granted.",
	})

	roomTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heist_room_transitions_total",
			Help: "Total number of room transition attempts by status.",
		},
		[]string{"status"},
	)
)

func solveOutcomeLabel(result *service.SolveResult) string {
	switch {
	case result.AlreadyCompleted:
		return "already_completed"
	case result.IsCorrect:
		return "correct"
	case result.MaxAttemptsReached:
		return "exhausted"
	default:
		return "incorrect"
	}
}
