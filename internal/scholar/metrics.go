package scholar

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "citegraph",
		Subsystem: "scholar",
		Name:      "requests_total",
		Help:      "API requests issued, by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "citegraph",
		Subsystem: "scholar",
		Name:      "retries_total",
		Help:      "Request attempts beyond the first.",
	})

	rateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "citegraph",
		Subsystem: "scholar",
		Name:      "rate_limit_waits_total",
		Help:      "Times a caller blocked on the fixed-window limiter.",
	})

	searchFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "citegraph",
		Subsystem: "scholar",
		Name:      "search_fallbacks_total",
		Help:      "Primary search failures that fell back to the bulk endpoint.",
	})
)
