package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	ServiceName string
}

// InitMetrics wires the otel meter provider to a Prometheus exporter
// and returns the handler the HTTP server mounts at /metrics.
func InitMetrics(cfg MetricsConfig) (*metric.MeterProvider, http.Handler, error) {
	exporter, err := promexporter.New()
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create resource: %w", err)
	}

	provider := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(res),
	)

	return provider, promhttp.Handler(), nil
}
