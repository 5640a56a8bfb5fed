package runner

import "github.com/prometheus/client_golang/prometheus"

var (
	gamesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mindplay",
		Subsystem: "runner",
		Name:      "games_total",
		Help:      "Games finished, by track and outcome.",
	}, []string{"track", "outcome"})

	movesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mindplay",
		Subsystem: "runner",
		Name:      "moves_total",
		Help:      "Moves submitted, by track.",
	}, []string{"track"})

	gameDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mindplay",
		Subsystem: "runner",
		Name:      "game_duration_seconds",
		Help:      "Wall-clock duration of a game.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600},
	}, []string{"track"})
)

func init() {
	prometheus.MustRegister(gamesTotal, movesTotal, gameDuration)
}
