package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

// Metrics holds the application counters
type Metrics struct {
	requests     otelmetric.Int64Counter
	postsCreated otelmetric.Int64Counter
	likes        otelmetric.Int64Counter
}

var (
	metricsOnce sync.Once
	appMetrics  *Metrics
)

// AppMetrics returns the process-wide counters. Instruments created before Init
// are forwarded to the real provider once it is installed.
func AppMetrics() *Metrics {
	metricsOnce.Do(func() {
		meter := otel.Meter(instrumentationName)
		m := &Metrics{}
		// Creation errors leave a nil instrument which the record helpers skip
		m.requests, _ = meter.Int64Counter("blog_http_requests_total",
			otelmetric.WithDescription("HTTP requests served"))
		m.postsCreated, _ = meter.Int64Counter("blog_posts_created_total",
			otelmetric.WithDescription("Posts created"))
		m.likes, _ = meter.Int64Counter("blog_likes_total",
			otelmetric.WithDescription("Likes added"))
		appMetrics = m
	})
	return appMetrics
}

// RecordRequest counts one served HTTP request
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	))
}

// RecordPostCreated counts one created post
func (m *Metrics) RecordPostCreated(ctx context.Context) {
	if m == nil || m.postsCreated == nil {
		return
	}
	m.postsCreated.Add(ctx, 1)
}

// RecordLike counts one like
func (m *Metrics) RecordLike(ctx context.Context) {
	if m == nil || m.likes == nil {
		return
	}
	m.likes.Add(ctx, 1)
}
