// Package tracing wires OpenTelemetry spans around sync operations, remote
// store calls and server requests.
package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation scope of every span.
const TracerName = "github.com/MKhiriev/wallet-cloud-sync"

// Exporter names accepted in Config.Exporter.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Config holds tracing configuration.
type Config struct {
	Enabled     bool
	Exporter    string
	Endpoint    string // OTLP collector endpoint
	ServiceName string
	Version     string
	SampleRate  float64
	Output      io.Writer // stdout exporter output, defaults to os.Stdout
}

// Tracer wraps an OpenTelemetry tracer with sync-specific span helpers.
// The zero value is not usable; use New or Nop.
type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
}

// Nop returns a tracer that records nothing.
func Nop() *Tracer {
	return &Tracer{tracer: noop.NewTracerProvider().Tracer(TracerName)}
}

// New creates a Tracer. Disabled tracing returns Nop.
func New(ctx context.Context, cfg Config) (*Tracer, error) {
	if !cfg.Enabled || cfg.Exporter == "" || cfg.Exporter == ExporterNone {
		return Nop(), nil
	}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetTracerProvider(provider)

	return &Tracer{
		tracer:   provider.Tracer(TracerName, trace.WithInstrumentationVersion(cfg.Version)),
		provider: provider,
	}, nil
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case ExporterStdout:
		opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if cfg.Output != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.Output))
		}
		return stdouttrace.New(opts...)
	case ExporterOTLP:
		opts := []otlptracehttp.Option{otlptracehttp.WithInsecure()}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", cfg.Exporter)
	}
}

// Shutdown flushes and stops the provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// Start starts a plain span.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// OperationSpan covers one sync operation of a domain: a container
// create/delete, a download run or an upload pass.
type OperationSpan struct {
	span trace.Span
}

// StartOperation starts a span named "sync.<operation>".
func (t *Tracer) StartOperation(ctx context.Context, domain, operation string) (context.Context, *OperationSpan) {
	ctx, span := t.tracer.Start(ctx, "sync."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("sync.domain", domain),
			attribute.String("sync.operation", operation),
		),
	)
	return ctx, &OperationSpan{span: span}
}

// SetCounts records how many items the operation completed and how many it
// dropped as permanently failed.
func (s *OperationSpan) SetCounts(completed, dropped int) {
	s.span.SetAttributes(
		attribute.Int("sync.items.completed", completed),
		attribute.Int("sync.items.dropped", dropped),
	)
}

// SetSubKind records the subkind the operation worked on.
func (s *OperationSpan) SetSubKind(subKind string) {
	s.span.SetAttributes(attribute.String("sync.sub_kind", subKind))
}

// End ends the span with the outcome of err.
func (s *OperationSpan) End(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}

// StartClientRequest starts a span for an outgoing remote store request.
func (t *Tracer) StartClientRequest(ctx context.Context, method, route string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", route),
		),
	)
}

// StartServerRequest starts a span for an incoming API request.
func (t *Tracer) StartServerRequest(ctx context.Context, method, route string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, method+" "+route,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("http.route", route),
		),
	)
}

// EndRequest ends a request span with the response status.
func EndRequest(span trace.Span, status int, err error) {
	span.SetAttributes(attribute.Int("http.response.status_code", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if status >= 500 {
		span.SetStatus(codes.Error, fmt.Sprintf("status %d", status))
	}
	span.End()
}

// Inject writes the span context of ctx into carrier headers.
func Inject(ctx context.Context, carrier propagation.TextMapCarrier) {
	otel.GetTextMapPropagator().Inject(ctx, carrier)
}

// Extract reads a remote span context from carrier headers.
func Extract(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
