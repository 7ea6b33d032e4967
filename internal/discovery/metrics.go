package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_discovery_cache_lookups_total",
			Help: "Discovery cache lookups by tier and result.",
		},
		[]string{"tier", "result"},
	)

	outreachAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_discovery_outreach_total",
			Help: "Automatic partner invites by outcome.",
		},
		[]string{"outcome"},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_discovery_runs_total",
			Help: "Discovery runs by outcome.",
		},
		[]string{"outcome"},
	)
)
