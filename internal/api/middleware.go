package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/myblogsite/myblog/pkg/logging"
	"github.com/myblogsite/myblog/pkg/telemetry"
)

// RequestLogger logs one line per request
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		log := logger
		if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.HasTraceID() {
			log = logging.WithTraceID(logger, sc.TraceID().String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("Request served", fields...)
		case status >= 400:
			log.Warn("Request served", fields...)
		default:
			log.Info("Request served", fields...)
		}
	}
}

// Tracing opens a server span per request and counts the request once it is served
func Tracing() gin.HandlerFunc {
	metrics := telemetry.AppMetrics()
	return func(c *gin.Context) {
		ctx, span := telemetry.StartSpan(c.Request.Context(), fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path),
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		span.SetName(fmt.Sprintf("%s %s", c.Request.Method, route))
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}

		metrics.RecordRequest(ctx, c.Request.Method, route, status)
	}
}
