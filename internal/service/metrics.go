package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	choicesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nihilism_choices_total",
			Help: "Total number of recorded player choices by valence (dark, light).",
		},
		[]string{"valence"},
	)

	loopResetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nihilism_loop_resets_total",
		Help: "Total number of loop resets.",
	})

	endingsReachedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nihilism_endings_reached_total",
			Help: "Total number of times a player first qualified for an ending.",
		},
		[]string{"ending"},
	)

	activePlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nihilism_active_players",
		Help: "Number of players currently held in memory.",
	})
)

func valenceLabel(isDark bool) string {
	if isDark {
		return "dark"
	}
	return "light"
}
