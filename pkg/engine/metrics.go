package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestTotal counts resource requests by outcome.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "locklord_requests_total",
			Help: "Total number of resource requests processed",
		},
		[]string{"outcome"},
	)

	// DetectedTotal counts detection runs that found a deadlock.
	DetectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "locklord_deadlocks_detected_total",
			Help: "Total number of deadlocks detected",
		},
	)

	// PreventedTotal counts requests denied by avoidance.
	PreventedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "locklord_deadlocks_prevented_total",
			Help: "Total number of deadlocks prevented by request denial",
		},
	)

	// RecoveryTotal counts victim terminations.
	RecoveryTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "locklord_recoveries_total",
			Help: "Total number of recovery victim terminations",
		},
	)

	// ProcessGauge tracks the number of live processes.
	ProcessGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "locklord_processes",
			Help: "Current number of registered processes",
		},
	)

	// ResourceGauge tracks the number of registered resources.
	ResourceGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "locklord_resources",
			Help: "Current number of registered resources",
		},
	)
)

func init() {
	prometheus.MustRegister(RequestTotal)
	prometheus.MustRegister(DetectedTotal)
	prometheus.MustRegister(PreventedTotal)
	prometheus.MustRegister(RecoveryTotal)
	prometheus.MustRegister(ProcessGauge)
	prometheus.MustRegister(ResourceGauge)
}
