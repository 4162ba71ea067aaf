package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metric names.
const (
	MetricConversions        = "metamodel.conversions"
	MetricConversionDuration = "metamodel.conversion.duration"
	MetricCacheHits          = "metamodel.cache.hits"
	MetricCacheMisses        = "metamodel.cache.misses"
	MetricCacheEvictions     = "metamodel.cache.evictions"
)

// Metrics holds the metric instruments.
type Metrics struct {
	conversions        metric.Int64Counter
	conversionDuration metric.Float64Histogram
	cacheHits          metric.Int64Counter
	cacheMisses        metric.Int64Counter
	cacheEvictions     metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.conversions, err = meter.Int64Counter(MetricConversions,
		metric.WithDescription("Number of metadata conversions"),
		metric.WithUnit("{conversion}"),
	); err != nil {
		return nil, fmt.Errorf("%s: %w", MetricConversions, err)
	}

	if m.conversionDuration, err = meter.Float64Histogram(MetricConversionDuration,
		metric.WithDescription("Duration of metadata conversions"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("%s: %w", MetricConversionDuration, err)
	}

	if m.cacheHits, err = meter.Int64Counter(MetricCacheHits,
		metric.WithDescription("Conversions served from the cache"),
	); err != nil {
		return nil, fmt.Errorf("%s: %w", MetricCacheHits, err)
	}

	if m.cacheMisses, err = meter.Int64Counter(MetricCacheMisses,
		metric.WithDescription("Conversions that required a build"),
	); err != nil {
		return nil, fmt.Errorf("%s: %w", MetricCacheMisses, err)
	}

	if m.cacheEvictions, err = meter.Int64Counter(MetricCacheEvictions,
		metric.WithDescription("Explicit cache evictions"),
	); err != nil {
		return nil, fmt.Errorf("%s: %w", MetricCacheEvictions, err)
	}

	return m, nil
}
