package echoweb

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uniplus_web_requests_total",
			Help: "Total requests served by the web server",
		},
		[]string{"route", "method", "code"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uniplus_web_request_duration_seconds",
			Help:    "Latency of the requests served by the web server",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		err := next(ctx)
		if err != nil {
			// let the error handler write the status
			ctx.Error(err)
		}
		route := ctx.Path()
		if route == "" {
			route = "unknown"
		}
		code := strconv.Itoa(ctx.Response().Status)
		httpRequests.WithLabelValues(route, ctx.Request().Method, code).Inc()
		httpDuration.WithLabelValues(route, ctx.Request().Method).Observe(time.Since(start).Seconds())
		return nil
	}
}
