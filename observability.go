package metamodel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/nlstn/go-odata-metamodel/internal/observability"
)

// ObservabilityConfig configures tracing and metrics for conversions.
// All providers are optional; when nil, the corresponding feature is a no-op.
type ObservabilityConfig struct {
	// TracerProvider provides the OpenTelemetry tracer. Each conversion is a span.
	TracerProvider trace.TracerProvider

	// MeterProvider provides the OpenTelemetry meter for conversion and cache metrics.
	MeterProvider metric.MeterProvider

	// ServiceName identifies this service in telemetry data.
	// Defaults to "metamodel" if not specified.
	ServiceName string

	// ServiceVersion is reported in telemetry attributes.
	ServiceVersion string

	// EnableServerTiming records each conversion as a Server-Timing metric when the
	// context passed to Convert carries a github.com/mitchellh/go-server-timing header.
	EnableServerTiming bool
}

// SetObservability configures OpenTelemetry-based observability for the converter.
//
// Example:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	defer tp.Shutdown(ctx)
//
//	converter := metamodel.NewConverter(metamodel.Config{})
//	if err := converter.SetObservability(metamodel.ObservabilityConfig{
//	    TracerProvider: tp,
//	    ServiceName:    "fiori-backend",
//	}); err != nil {
//	    log.Fatal(err)
//	}
func (c *Converter) SetObservability(cfg ObservabilityConfig) error {
	opts := []observability.Option{}

	if cfg.TracerProvider != nil {
		opts = append(opts, observability.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.MeterProvider != nil {
		opts = append(opts, observability.WithMeterProvider(cfg.MeterProvider))
	}
	if cfg.ServiceName != "" {
		opts = append(opts, observability.WithServiceName(cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		opts = append(opts, observability.WithServiceVersion(cfg.ServiceVersion))
	}
	if c.logger != nil {
		opts = append(opts, observability.WithLogger(c.logger))
	}
	if cfg.EnableServerTiming {
		opts = append(opts, observability.WithServerTiming())
	}

	obsCfg := observability.NewConfig(opts...)
	if err := obsCfg.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}

	c.observability = obsCfg
	c.cache.SetObservability(obsCfg)

	c.logger.Info("Observability configured",
		"tracing_enabled", cfg.TracerProvider != nil,
		"metrics_enabled", cfg.MeterProvider != nil,
		"server_timing_enabled", cfg.EnableServerTiming,
		"service_name", cfg.ServiceName,
	)
	return nil
}

// Observability returns the current observability configuration, or nil.
func (c *Converter) Observability() *observability.Config {
	return c.observability
}

// ServerTimingMetric tracks the duration of an operation for the Server-Timing
// HTTP response header.
type ServerTimingMetric = observability.ServerTimingMetric

// StartServerTiming starts a Server-Timing metric with the given name. Without a
// Server-Timing header in ctx it returns a nil metric that is safe to Stop.
func StartServerTiming(ctx context.Context, name string) *ServerTimingMetric {
	return observability.StartServerTiming(ctx, name)
}

// StartServerTimingWithDesc starts a Server-Timing metric with a name and description.
func StartServerTimingWithDesc(ctx context.Context, name, description string) *ServerTimingMetric {
	return observability.StartServerTimingWithDesc(ctx, name, description)
}
