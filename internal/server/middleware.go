package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rshade/boqlca/internal/logging"
)

// requestContext attaches a trace id and a request-scoped logger to the
// request context, echoes the trace id, and records request metrics.
func requestContext(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		ctx := c.Request.Context()
		traceID := c.GetHeader(logging.TraceIDHeader)
		if traceID == "" {
			traceID = logging.GetOrGenerateTraceID(ctx)
		}
		l := base.With().Str("trace_id", traceID).Logger()
		ctx = logging.ContextWithTraceID(ctx, traceID)
		ctx = l.WithContext(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(logging.TraceIDHeader, traceID)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		observeRequest(c.Request.Method, route, status, elapsed)

		l.Debug().
			Str("component", "server").
			Str("operation", "request").
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration", elapsed).
			Msg("request handled")
	}
}

// recovery turns panics into 500 responses and logs them.
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		logging.FromContext(c.Request.Context()).Error().
			Str("component", "server").
			Str("operation", "recover").
			Interface("panic", rec).
			Msg("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
	})
}
