package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	commands *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// A nil registerer creates the metrics without exposing them
func newMetrics(registerer prometheus.Registerer) *metrics {
	factory := promauto.With(registerer)
	return &metrics{
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "factionbot_commands_total",
			Help: "Commands handled, by command and outcome",
		}, []string{"command", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "factionbot_command_duration_seconds",
			Help:    "Time spent handling a command",
			Buckets: prometheus.DefBuckets,
		}, []string{"command"}),
	}
}
