package eventbus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK         = "ok"
	resultRetried    = "retried"
	resultTerminated = "terminated"
	resultDropped    = "dropped"
)

var eventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "loyalty_events_total",
		Help: "Bus messages processed, by subject and outcome",
	},
	[]string{"subject", "result"},
)
