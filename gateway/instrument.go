package gateway

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Instrumentation counts requests per endpoint and observes latency and
// payload sizes. Mount before the route handlers; /metrics itself is not
// instrumented.
func Instrumentation() gin.HandlerFunc {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "newmood",
		Subsystem: "request",
		Name:      "requests_count",
		Help:      "Number of requests per each endpoint",
	}, []string{"code", "method", "handler", "url"})

	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "newmood",
		Subsystem: "response",
		Name:      "response_time_hist",
		Help:      "newmood response duration in milliseconds",
	})

	responseSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "newmood",
		Subsystem: "response",
		Name:      "size_histogram",
		Help:      "newmood response size",
	})

	for _, coll := range []prometheus.Collector{requests, latency, responseSize} {
		if err := prometheus.Register(coll); err != nil {
			panic(err)
		}
	}

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := float64(time.Since(start)) * 1e-6 // to millisecond

		status := strconv.Itoa(c.Writer.Status())
		requests.WithLabelValues(status, c.Request.Method, c.HandlerName(), c.Request.URL.Path).Inc()
		latency.Observe(duration)
		responseSize.Observe(float64(c.Writer.Size()))
	}
}
