package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/prometheus"
)

// HTTPMetrics records request counts and latencies.  The route template
// (/api/v1/leads/:id) is used as the path label to keep cardinality bounded.
func HTTPMetrics(app *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		gauge := app.HTTPActiveRequests.WithLabelValues(method)
		gauge.Inc()
		defer gauge.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		app.HTTPRequestsTotal.
			WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).
			Inc()
		app.HTTPRequestDuration.
			WithLabelValues(method, path).
			Observe(time.Since(start).Seconds())
	}
}
