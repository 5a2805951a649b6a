package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Labels use the route pattern, never the raw URL, so ids in paths such as
// /restaurants/:id/menu do not explode cardinality.
var (
	httpReqs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tapeat_http_requests_total",
		Help: "Ops HTTP requests by method, route, and status.",
	}, []string{"method", "path", "status"})

	httpLat = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tapeat_http_request_duration_seconds",
		Help:    "Ops HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	httpInflight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tapeat_http_requests_inflight",
		Help: "Ops HTTP requests currently being served.",
	})
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight)
}

// Metrics instruments every request. Unmatched routes are labelled
// "unmatched" so scanners cannot create series.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
