package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "striptease",
		Subsystem: "server",
		Name:      "connections_total",
		Help:      "Total number of accepted connections.",
	})

	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "striptease",
		Subsystem: "server",
		Name:      "connections_active",
		Help:      "Number of currently open connections.",
	})

	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "striptease",
		Subsystem: "server",
		Name:      "messages_total",
		Help:      "Messages handled, by message kind and response status.",
	}, []string{"kind", "status"})

	decodeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "striptease",
		Subsystem: "server",
		Name:      "decode_errors_total",
		Help:      "Frames that failed to decode.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "striptease",
		Subsystem: "server",
		Name:      "request_duration_seconds",
		Help:      "Time spent handling a request, by message kind.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})
)
