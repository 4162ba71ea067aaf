// Package observability wires OpenTelemetry tracing and metrics, and Server-Timing
// metrics, into metadata conversion. A nil *Config is valid and records nothing.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	instrumentationName = "github.com/nlstn/go-odata-metamodel"

	// DefaultServiceName is reported when no service name is configured.
	DefaultServiceName = "metamodel"
)

// Attribute keys.
const (
	AttrIdentity     = "metamodel.identity"
	AttrCacheResult  = "metamodel.cache.result"
	AttrEntityTypes  = "metamodel.entity_types"
	AttrEntitySets   = "metamodel.entity_sets"
	AttrAnnotations  = "metamodel.annotation_lists"
	AttrServiceName  = "service.name"
	AttrServiceVer   = "service.version"
	AttrCapabilities = "metamodel.capabilities"
)

// Config holds the observability configuration.
type Config struct {
	tracerProvider     trace.TracerProvider
	meterProvider      metric.MeterProvider
	serviceName        string
	serviceVersion     string
	logger             *slog.Logger
	enableServerTiming bool

	tracer  trace.Tracer
	metrics *Metrics
}

// Option configures a Config.
type Option func(*Config)

// WithTracerProvider sets the tracer provider. Tracing is a no-op without one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) { c.tracerProvider = tp }
}

// WithMeterProvider sets the meter provider. Metrics are a no-op without one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Config) { c.meterProvider = mp }
}

// WithServiceName sets the service name reported on spans.
func WithServiceName(name string) Option {
	return func(c *Config) { c.serviceName = name }
}

// WithServiceVersion sets the service version reported on spans.
func WithServiceVersion(version string) Option {
	return func(c *Config) { c.serviceVersion = version }
}

// WithLogger sets the logger used to report instrumentation problems.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.logger = logger }
}

// WithServerTiming records conversions as Server-Timing metrics when the context
// carries a servertiming header.
func WithServerTiming() Option {
	return func(c *Config) { c.enableServerTiming = true }
}

// NewConfig returns a Config with the options applied. Call Initialize before use.
func NewConfig(opts ...Option) *Config {
	c := &Config{serviceName: DefaultServiceName}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize creates the tracer and the metric instruments.
func (c *Config) Initialize() error {
	if c.tracerProvider == nil {
		c.tracerProvider = tracenoop.NewTracerProvider()
	}
	if c.meterProvider == nil {
		c.meterProvider = metricnoop.NewMeterProvider()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	c.tracer = c.tracerProvider.Tracer(instrumentationName, trace.WithInstrumentationVersion(c.serviceVersion))

	metrics, err := newMetrics(c.meterProvider.Meter(instrumentationName))
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	c.metrics = metrics
	return nil
}

// ServerTimingEnabled reports whether Server-Timing metrics are recorded.
func (c *Config) ServerTimingEnabled() bool {
	return c != nil && c.enableServerTiming
}

// Tracer returns the configured tracer, or a no-op tracer.
func (c *Config) Tracer() trace.Tracer {
	if c == nil || c.tracer == nil {
		return tracenoop.NewTracerProvider().Tracer(instrumentationName)
	}
	return c.tracer
}

// Metrics returns the metric instruments, or nil before Initialize.
func (c *Config) Metrics() *Metrics {
	if c == nil {
		return nil
	}
	return c.metrics
}

// Conversion tracks one metadata conversion.
type Conversion struct {
	cfg      *Config
	span     trace.Span
	timing   *ServerTimingMetric
	identity string
	start    time.Time
}

// StartConversion starts a span, and a Server-Timing metric when enabled, for the
// conversion of the model with the given identity.
func (c *Config) StartConversion(ctx context.Context, identity, capabilities string) (context.Context, *Conversion) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrIdentity, identity),
		attribute.String(AttrCapabilities, capabilities),
	}
	if c != nil {
		attrs = append(attrs, attribute.String(AttrServiceName, c.serviceName))
		if c.serviceVersion != "" {
			attrs = append(attrs, attribute.String(AttrServiceVer, c.serviceVersion))
		}
	}
	ctx, span := c.Tracer().Start(ctx, "metamodel.Convert", trace.WithAttributes(attrs...))

	conversion := &Conversion{cfg: c, span: span, identity: identity, start: time.Now()}
	if c.ServerTimingEnabled() {
		conversion.timing = StartServerTimingWithDesc(ctx, "metamodel-convert", "Metadata conversion")
	}
	return ctx, conversion
}

// End finishes the conversion. err is recorded on the span and counted as a failure;
// on success the graph sizes are added to the span.
func (cv *Conversion) End(ctx context.Context, err error, entityTypes, entitySets, annotationLists int) {
	cv.timing.Stop()
	defer cv.span.End()

	durationMs := float64(time.Since(cv.start).Microseconds()) / 1000
	status := "success"
	if err != nil {
		status = "error"
		cv.span.RecordError(err)
		cv.span.SetStatus(codes.Error, err.Error())
	} else {
		cv.span.SetAttributes(
			attribute.Int(AttrEntityTypes, entityTypes),
			attribute.Int(AttrEntitySets, entitySets),
			attribute.Int(AttrAnnotations, annotationLists),
		)
	}

	if m := cv.cfg.Metrics(); m != nil {
		attrs := metric.WithAttributes(attribute.String("status", status))
		m.conversions.Add(ctx, 1, attrs)
		m.conversionDuration.Record(ctx, durationMs, attrs)
	}
}

// RecordCacheHit counts a conversion served from the cache.
func (c *Config) RecordCacheHit(ctx context.Context) {
	if m := c.Metrics(); m != nil {
		m.cacheHits.Add(ctx, 1)
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String(AttrCacheResult, "hit"))
}

// RecordCacheMiss counts a conversion that had to be built.
func (c *Config) RecordCacheMiss(ctx context.Context) {
	if m := c.Metrics(); m != nil {
		m.cacheMisses.Add(ctx, 1)
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String(AttrCacheResult, "miss"))
}

// RecordEviction counts an explicit cache eviction.
func (c *Config) RecordEviction(ctx context.Context) {
	if m := c.Metrics(); m != nil {
		m.cacheEvictions.Add(ctx, 1)
	}
}
