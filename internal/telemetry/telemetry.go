package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const (
	DefaultExportInterval = 10 * time.Second
	DefaultBatchTimeout   = 5 * time.Second
)

// Options configures the exporters started by Init. Endpoints and headers come from the
// standard OTEL_EXPORTER_OTLP_* environment variables.
type Options struct {
	ServiceName string
	Version     string

	// SampleRatio is the fraction of root traces recorded; child spans follow their parent.
	SampleRatio float64

	ExportInterval time.Duration
	BatchTimeout   time.Duration
}

func (o *Options) applyDefaults() {
	if o.ServiceName == "" {
		o.ServiceName = "sensordash"
	}
	if o.ExportInterval <= 0 {
		o.ExportInterval = DefaultExportInterval
	}
	if o.BatchTimeout <= 0 {
		o.BatchTimeout = DefaultBatchTimeout
	}
	if o.SampleRatio < 0 {
		o.SampleRatio = 0
	}
	if o.SampleRatio > 1 {
		o.SampleRatio = 1
	}
}

// Providers owns the trace and meter providers installed as otel globals.
type Providers struct {
	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
}

// Init starts OTLP gRPC trace and metric export and installs the providers globally.
// A signal whose exporter cannot be created is logged and left disabled.
func Init(ctx context.Context, opts Options) (*Providers, error) {
	opts.applyDefaults()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.Version),
		),
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var spans sdktrace.SpanExporter
	if exp, err := otlptracegrpc.New(ctx); err != nil {
		log.Warn().Err(err).Msg("Trace exporter unavailable, tracing disabled")
	} else {
		spans = exp
	}

	var reader sdkmetric.Reader
	if exp, err := otlpmetricgrpc.New(ctx); err != nil {
		log.Warn().Err(err).Msg("Metric exporter unavailable, otel metrics disabled")
	} else {
		reader = sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(opts.ExportInterval))
	}

	p := newProviders(res, spans, reader, opts)
	p.install()

	log.Info().
		Str("service", opts.ServiceName).
		Str("version", opts.Version).
		Float64("sample_ratio", opts.SampleRatio).
		Dur("export_interval", opts.ExportInterval).
		Msg("OpenTelemetry initialized")

	return p, nil
}

// newProviders builds the providers around the given exporter and reader, either may be nil.
func newProviders(res *resource.Resource, spans sdktrace.SpanExporter, reader sdkmetric.Reader, opts Options) *Providers {
	p := &Providers{}

	if spans != nil {
		p.tracer = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(spans,
				sdktrace.WithBatchTimeout(opts.BatchTimeout),
				sdktrace.WithMaxExportBatchSize(512),
			),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SampleRatio))),
		)
	}

	if reader != nil {
		p.meter = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(reader),
			sdkmetric.WithResource(res),
		)
	}

	return p
}

func (p *Providers) install() {
	if p.tracer != nil {
		otel.SetTracerProvider(p.tracer)
	}
	if p.meter != nil {
		otel.SetMeterProvider(p.meter)
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// Shutdown flushes and stops both providers. Safe on a nil receiver.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}

	var errs []error
	if p.tracer != nil {
		if err := p.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("trace shutdown: %w", err))
		}
	}
	if p.meter != nil {
		if err := p.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metric shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
