// Package metrics exposes Prometheus collectors for session and command traffic.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "zbws"

// Metrics groups the collectors updated by the session and the command client.
type Metrics struct {
	framesSent     prometheus.Counter
	framesReceived prometheus.Counter
	commands       *prometheus.CounterVec
	errors         *prometheus.CounterVec
	connected      prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is convenient in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Text frames written to the websocket.",
		}),
		framesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Text frames read from the websocket.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_sent_total",
			Help:      "Commands sent, by operation.",
		}, []string{"operation"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Client errors, by type.",
		}, []string{"type"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 while the websocket handshake is complete and the socket open.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.framesSent, m.framesReceived, m.commands, m.errors, m.connected)
	}
	return m
}

func (m *Metrics) FrameSent() {
	if m == nil {
		return
	}
	m.framesSent.Inc()
}

func (m *Metrics) FrameReceived() {
	if m == nil {
		return
	}
	m.framesReceived.Inc()
}

// CommandSent counts a command by its operation name.
func (m *Metrics) CommandSent(operation string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(operation).Inc()
}

// Error counts an error by its type label.
func (m *Metrics) Error(errorType string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(errorType).Inc()
}

func (m *Metrics) SetConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}
