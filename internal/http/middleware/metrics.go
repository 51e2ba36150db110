// This file exposes Prometheus instrumentation for the HTTP surface.
//
// Labels stay bounded: method, the registered Gin route (raw path only when
// nothing matched) and the numeric status. Streams are tracked separately
// because a WebSocket request lasts as long as the connection.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "concierge_http_request_duration_seconds",
			Help: "HTTP request duration by method and route.",
			// Sends wait on the assistant, so the tail reaches the client timeout.
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "concierge_http_requests_inflight",
			Help: "HTTP requests currently being served.",
		},
	)

	streamConns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "concierge_stream_connections",
			Help: "Open widget WebSocket streams.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, streamConns)
}

// Metrics records request count, latency and in-flight gauge.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// StreamOpened tracks a WebSocket stream; call the returned func on close.
func StreamOpened() func() {
	streamConns.Inc()
	return streamConns.Dec
}
