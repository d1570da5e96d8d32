package gateway

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once
	wsConnects  *prometheus.CounterVec
	wsErrors    *prometheus.CounterVec
	wsMessages  *prometheus.CounterVec
	wsDrops     *prometheus.CounterVec
	readyState  prometheus.Gauge
)

// RegisterMetrics registers gateway metrics in r, or in the default
// registerer when r is nil. Safe to call more than once.
func RegisterMetrics(r prometheus.Registerer) {
	metricsOnce.Do(func() {
		if r == nil {
			r = prometheus.DefaultRegisterer
		}

		wsConnects = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ibconnect", Subsystem: "gateway", Name: "connects_total",
			Help: "Total WebSocket connection attempts",
		}, []string{"status"})

		wsErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ibconnect", Subsystem: "gateway", Name: "errors_total",
			Help: "Total categorized session errors",
		}, []string{"type"})

		wsMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ibconnect", Subsystem: "gateway", Name: "messages_total",
			Help: "Total frames received from the gateway",
		}, []string{"type"})

		wsDrops = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ibconnect", Subsystem: "gateway", Name: "dropped_frames_total",
			Help: "Frames dropped because their type is unknown",
		}, []string{"type"})

		readyState = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ibconnect", Subsystem: "gateway", Name: "ready_state",
			Help: "1 when the session is established, 0 otherwise",
		})

		collectors := []prometheus.Collector{wsConnects, wsErrors, wsMessages, wsDrops, readyState}
		for _, c := range collectors {
			_ = r.Register(c)
		}
	})
}

func incConnect(status string) {
	if wsConnects != nil {
		wsConnects.WithLabelValues(status).Inc()
	}
}

func incError(errType string) {
	if wsErrors != nil {
		wsErrors.WithLabelValues(errType).Inc()
	}
}

func incMessage(msgType string) {
	if wsMessages != nil {
		wsMessages.WithLabelValues(msgType).Inc()
	}
}

func incDrop(msgType string) {
	if wsDrops != nil {
		wsDrops.WithLabelValues(msgType).Inc()
	}
}

func setReady(ready bool) {
	if readyState == nil {
		return
	}
	if ready {
		readyState.Set(1)
	} else {
		readyState.Set(0)
	}
}
