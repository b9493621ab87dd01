// Package tracing configures OpenTelemetry tracing for scan evaluation.
// Spans are exported over OTLP/gRPC when an endpoint is configured and
// dropped otherwise.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/complyscope/complyscope/pkg/defaults"
	"github.com/complyscope/complyscope/pkg/duration"
)

// InstrumentationName names the tracer used by complyscope packages.
const InstrumentationName = "github.com/complyscope/complyscope"

// Options configures the exporter.
type Options struct {
	// Endpoint is the OTLP collector address (e.g. "localhost:4317").
	// Empty disables export.
	Endpoint string

	// Insecure disables TLS to the collector.
	Insecure bool

	// ServiceName defaults to defaults.ToolName.
	ServiceName string

	// Headers are sent with every export request.
	Headers map[string]string
}

// Provider owns the tracer provider for the process.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

// Noop returns a provider whose spans are discarded.
func Noop() *Provider {
	return &Provider{tracer: noop.NewTracerProvider().Tracer(InstrumentationName)}
}

// New creates a provider exporting to opts.Endpoint, or Noop when the
// endpoint is empty.
func New(ctx context.Context, opts Options) (*Provider, error) {
	if opts.Endpoint == "" {
		return Noop(), nil
	}

	exporterOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		exporterOpts = append(exporterOpts,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	if len(opts.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlptracegrpc.WithHeaders(opts.Headers))
	}

	ctx, cancel := context.WithTimeout(ctx, duration.ExporterConnect)
	defer cancel()
	exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("tracing: create exporter: %w", err)
	}
	return NewWithProcessor(opts.ServiceName, sdktrace.NewBatchSpanProcessor(exporter)), nil
}

// NewWithProcessor builds a provider around an existing span processor,
// for in-process exporters and tests.
func NewWithProcessor(serviceName string, sp sdktrace.SpanProcessor) *Provider {
	if serviceName == "" {
		serviceName = defaults.ToolName
	}
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(defaults.Version),
		attribute.String("service.component", "evaluator"),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	return &Provider{tp: tp, tracer: tp.Tracer(InstrumentationName)}
}

// Tracer returns the tracer for evaluation spans.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil {
		return noop.NewTracerProvider().Tracer(InstrumentationName)
	}
	return p.tracer
}

// Shutdown flushes pending spans. It is a no-op for Noop providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, duration.Shutdown)
	defer cancel()
	return p.tp.Shutdown(ctx)
}
