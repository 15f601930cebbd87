// Package metrics exposes the dungeon's Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FloorsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delvekeep_floors_generated_total",
		Help: "Total number of floors generated.",
	})

	RoomsRespawned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delvekeep_respawns_total",
		Help: "Total number of monster rooms reset by respawn.",
	})

	SelfHeals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delvekeep_self_heals_total",
			Help: "Total number of persisted room states corrected on load, by kind.",
		},
		[]string{"kind"},
	)

	DescentsBlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delvekeep_descents_blocked_total",
			Help: "Total number of refused descents, by reason.",
		},
		[]string{"reason"},
	)

	FloorsCleared = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delvekeep_floors_first_cleared_total",
		Help: "Total number of first full clears of a floor.",
	})

	ConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delvekeep_connections_rejected_total",
			Help: "Total number of connections refused by the limiter, by limit.",
		},
		[]string{"limit"},
	)

	LoginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delvekeep_login_failures_total",
		Help: "Total number of failed logins.",
	})

	CommandsThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "delvekeep_commands_throttled_total",
		Help: "Total number of commands refused for arriving too quickly.",
	})

	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "delvekeep_sessions_active",
		Help: "Number of connected sessions.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
