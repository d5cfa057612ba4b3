package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/myblogsite/myblog/pkg/config"
	"github.com/myblogsite/myblog/pkg/logging"
)

const (
	instrumentationName = "github.com/myblogsite/myblog"
	serviceVersion      = "0.1.0"
	shutdownTimeout     = 5 * time.Second
)

var tracer trace.Tracer

// shutdownFunc releases one telemetry provider
type shutdownFunc func(context.Context) error

// Init installs the tracer and meter providers enabled in cfg and returns a func
// that flushes and stops them
func Init(cfg *config.TelemetryConfig) (func(), error) {
	logger := logging.WithComponent("telemetry")
	if !cfg.Enabled {
		logger.Info("Telemetry disabled")
		return func() {}, nil
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to describe service %s: %w", cfg.ServiceName, err)
	}

	var stops []shutdownFunc
	if cfg.JaegerURL != "" {
		stop, err := initTracing(cfg.JaegerURL, res)
		if err != nil {
			return nil, err
		}
		stops = append(stops, stop)
		logger.Info("Tracing to Jaeger", zap.String("url", cfg.JaegerURL))
	}
	if cfg.PrometheusEnabled {
		metricStops, err := initMetrics(cfg.PrometheusPort, res, logger)
		if err != nil {
			return nil, err
		}
		stops = append(stops, metricStops...)
		logger.Info("Serving Prometheus metrics", zap.Int("port", cfg.PrometheusPort))
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	tracer = otel.Tracer(cfg.ServiceName)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, stop := range stops {
			if err := stop(ctx); err != nil {
				logger.Error("Failed to stop telemetry provider", zap.Error(err))
			}
		}
	}, nil
}

func initTracing(endpoint string, res *resource.Resource) (shutdownFunc, error) {
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	if err != nil {
		return nil, fmt.Errorf("failed to create jaeger exporter for %s: %w", endpoint, err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter), sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// initMetrics installs the Prometheus-backed meter provider and starts the /metrics listener
func initMetrics(port int, res *resource.Resource, logger *zap.Logger) ([]shutdownFunc, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	otel.SetMeterProvider(mp)

	srv := newMetricsServer(port)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics listener stopped", zap.Int("port", port), zap.Error(err))
		}
	}()
	return []shutdownFunc{srv.Shutdown, mp.Shutdown}, nil
}

// newMetricsServer exposes the Prometheus registry on its own port
func newMetricsServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Tracer returns the global tracer
func Tracer() trace.Tracer {
	if tracer == nil {
		return noop.NewTracerProvider().Tracer(instrumentationName)
	}
	return tracer
}

// StartSpan starts a new span
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}
