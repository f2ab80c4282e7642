package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/sensordash"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Connection loop metrics
	ConnectionsAcceptedTotal metric.Int64Counter
	AcceptErrorsTotal        metric.Int64Counter
	ConnectionErrorsTotal    metric.Int64Counter
	ActiveConnections        metric.Int64UpDownCounter
	ConnectionDuration       metric.Float64Histogram

	// Template store metrics
	TemplateReloadsTotal      metric.Int64Counter
	TemplateReloadErrorsTotal metric.Int64Counter
	TemplateRenderErrorsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary.
// Instruments created before Init are forwarded once a provider is installed.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.ConnectionsAcceptedTotal, _ = meter.Int64Counter(
		"sensordash.connections.accepted.total",
		metric.WithDescription("Total number of connections accepted on the unix socket"),
		metric.WithUnit("{connection}"),
	)

	m.AcceptErrorsTotal, _ = meter.Int64Counter(
		"sensordash.connections.accept_errors.total",
		metric.WithDescription("Total number of failed accept calls (retried)"),
		metric.WithUnit("{error}"),
	)

	m.ConnectionErrorsTotal, _ = meter.Int64Counter(
		"sensordash.connections.errors.total",
		metric.WithDescription("Total number of connections that ended with an error"),
		metric.WithUnit("{error}"),
	)

	m.ActiveConnections, _ = meter.Int64UpDownCounter(
		"sensordash.connections.active",
		metric.WithDescription("Number of connections currently being served"),
		metric.WithUnit("{connection}"),
	)

	m.ConnectionDuration, _ = meter.Float64Histogram(
		"sensordash.connections.duration",
		metric.WithDescription("Lifetime of served connections"),
		metric.WithUnit("ms"),
	)

	m.TemplateReloadsTotal, _ = meter.Int64Counter(
		"sensordash.templates.reloads.total",
		metric.WithDescription("Total number of successful template reloads"),
		metric.WithUnit("{reload}"),
	)

	m.TemplateReloadErrorsTotal, _ = meter.Int64Counter(
		"sensordash.templates.reload_errors.total",
		metric.WithDescription("Total number of template reloads rejected by a parse error"),
		metric.WithUnit("{error}"),
	)

	m.TemplateRenderErrorsTotal, _ = meter.Int64Counter(
		"sensordash.templates.render_errors.total",
		metric.WithDescription("Total number of failed template renders"),
		metric.WithUnit("{error}"),
	)

	return m
}
