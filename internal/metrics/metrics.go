// Package metrics holds the prometheus instruments of an acquisition session.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "obdlog"

type Session struct {
	Ticks           prometheus.Counter
	WriteFailures   prometheus.Counter
	EchoesDropped   prometheus.Counter
	LinesRejected   prometheus.Counter
	Readings        *prometheus.CounterVec
	Snapshots       prometheus.Counter
	EmptyCycles     prometheus.Counter
	TransportErrors prometheus.Counter
	Connected       prometheus.Gauge
}

// NewSession creates the session instruments and registers them with reg.
// A nil reg yields working, unregistered instruments.
func NewSession(reg prometheus.Registerer) *Session {
	f := promauto.With(reg)
	return &Session{
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "ticks_total",
			Help: "Poll timer ticks processed.",
		}),
		WriteFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "write_failures_total",
			Help: "Commands that could not be written to the adapter.",
		}),
		EchoesDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "echoes_dropped_total",
			Help: "Inbound lines classified as command echo.",
		}),
		LinesRejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "lines_rejected_total",
			Help: "Inbound lines that did not decode into a reading.",
		}),
		Readings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "readings_total",
			Help: "Decoded readings by kind.",
		}, []string{"kind"}),
		Snapshots: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "snapshots_total",
			Help: "Snapshots appended to the history.",
		}),
		EmptyCycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "empty_cycles_total",
			Help: "Poll cycles that closed without any reading.",
		}),
		TransportErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "session", Name: "transport_errors_total",
			Help: "Connection-level errors that ended a session.",
		}),
		Connected: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "session", Name: "connected",
			Help: "1 while a session is connected.",
		}),
	}
}
