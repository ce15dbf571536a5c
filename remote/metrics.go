package remote

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	actionLabel = "action"
	funcLabel   = "func"
	resultLabel = "result"
)

var (
	endpointsAttached = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voxtree_remote_endpoints",
		Help: "The number of endpoints attached to hosts.",
	})

	messagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxtree_remote_received_msgs",
		Help: "The number of valid messages received.",
	}, []string{
		actionLabel,
	})

	messagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxtree_remote_sent_msgs",
		Help: "The number of messages sent.",
	}, []string{
		actionLabel,
	})

	invalidMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxtree_remote_invalid_msgs",
		Help: "The number of inbound messages dropped by validation.",
	})

	callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voxtree_remote_call_seconds",
		Help:    "Time the host spent executing calls.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{
		funcLabel,
		resultLabel,
	})
)
