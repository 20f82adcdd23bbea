package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the coordinator's instrumentation. A nil registerer yields
// unregistered collectors, so metrics stay opt-in.
type metrics struct {
	runsStarted     prometheus.Counter
	runsFinished    *prometheus.CounterVec
	activeRuns      prometheus.Gauge
	eventsDelivered prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)

	return &metrics{
		runsStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "inkfold",
			Subsystem: "runner",
			Name:      "runs_started_total",
			Help:      "Runs accepted by the coordinator.",
		}),
		runsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inkfold",
			Subsystem: "runner",
			Name:      "runs_finished_total",
			Help:      "Runs finished, labelled by terminal status.",
		}, []string{"status"}),
		activeRuns: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "inkfold",
			Subsystem: "runner",
			Name:      "active_runs",
			Help:      "Currently executing runs.",
		}),
		eventsDelivered: f.NewCounter(prometheus.CounterOpts{
			Namespace: "inkfold",
			Subsystem: "runner",
			Name:      "events_delivered_total",
			Help:      "Lifecycle events handed to the event sink.",
		}),
	}
}
