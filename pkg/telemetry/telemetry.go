// Package telemetry installs an OpenTelemetry tracer provider that exports
// spans over OTLP/gRPC. Without an endpoint the global provider stays no-op.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/macropower/ruletokens/pkg/version"
)

const serviceName = "ruletokens"

// Providers holds the SDK tracer provider. It is nil when telemetry is off.
type Providers struct {
	tp *sdktrace.TracerProvider
}

// Opt configures [Init].
type Opt func(*options)

type options struct {
	exporter sdktrace.SpanExporter
	insecure bool
}

// WithExporter exports spans to e instead of an OTLP endpoint.
func WithExporter(e sdktrace.SpanExporter) Opt {
	return func(o *options) {
		o.exporter = e
	}
}

// WithInsecure disables TLS for the OTLP connection.
func WithInsecure(insecure bool) Opt {
	return func(o *options) {
		o.insecure = insecure
	}
}

// Init registers a global tracer provider exporting to endpoint. An empty
// endpoint without [WithExporter] leaves the global provider untouched.
func Init(ctx context.Context, endpoint string, opts ...Opt) (*Providers, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if endpoint == "" && o.exporter == nil {
		return &Providers{}, nil
	}

	exporter := o.exporter
	if exporter == nil {
		grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
		if o.insecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}

		var err error

		exporter, err = otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("create trace exporter: %w", err)
		}
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version.GetVersion()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.Debug("telemetry initialized", slog.String("endpoint", endpoint))

	return &Providers{tp: tp}, nil
}

// Shutdown flushes pending spans and closes the exporter.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}

	err := p.tp.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}

	return nil
}
