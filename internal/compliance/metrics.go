package compliance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	verdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_compliance_verdicts_total",
			Help: "Completed compliance checks by verdict status and risk level",
		},
		[]string{"status", "level"},
	)

	checkFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_compliance_failures_total",
			Help: "Compliance checks that failed, by stage",
		},
		[]string{"stage"},
	)

	alertsOpenedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_compliance_alerts_total",
			Help: "AML alerts opened by type",
		},
		[]string{"type"},
	)
)
