package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"paybot/internal/logging"
	"paybot/internal/metrics"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// ObservabilityMiddleware assigns a request id, stores a request-scoped
// logger in the request context, and records an access log line and
// request metrics once the handler returns.
func ObservabilityMiddleware(base *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	if base == nil {
		base = zap.L()
	}
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(RequestIDHeader, rid)

		reqLogger := base.With(zap.String("request_id", rid))
		c.Request = c.Request.WithContext(logging.ContextWithLogger(c.Request.Context(), reqLogger))

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		m.ObserveRequest(c.Request.Method, route, strconv.Itoa(status))

		reqLogger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
