package connector

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce     sync.Once
	callbacksTotal  *prometheus.CounterVec
	unhandledEvents *prometheus.CounterVec
)

// RegisterMetrics registers connector metrics in r, or in the default
// registerer when r is nil. Safe to call more than once.
func RegisterMetrics(r prometheus.Registerer) {
	metricsOnce.Do(func() {
		if r == nil {
			r = prometheus.DefaultRegisterer
		}

		callbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ibconnect", Subsystem: "connector", Name: "callbacks_total",
			Help: "Total inbound callbacks received from the gateway session",
		}, []string{"type"})

		unhandledEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ibconnect", Subsystem: "connector", Name: "unhandled_events_total",
			Help: "Events dropped because no handler was registered",
		}, []string{"type"})

		for _, c := range []prometheus.Collector{callbacksTotal, unhandledEvents} {
			_ = r.Register(c)
		}
	})
}

func incCallback(eventType string) {
	if callbacksTotal != nil {
		callbacksTotal.WithLabelValues(eventType).Inc()
	}
}

func incUnhandled(eventType string) {
	if unhandledEvents != nil {
		unhandledEvents.WithLabelValues(eventType).Inc()
	}
}
