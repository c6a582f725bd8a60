package restapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uniplus_api_requests_total",
			Help: "Total requests sent to the UniPlus API",
		},
		[]string{"route", "method", "code"},
	)

	apiDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uniplus_api_request_duration_seconds",
			Help:    "Latency of requests sent to the UniPlus API",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"route", "method"},
	)
)

func observe(route, method string, resp *http.Response, elapsed time.Duration) {
	apiRequests.WithLabelValues(route, method, statusLabel(resp)).Inc()
	apiDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
