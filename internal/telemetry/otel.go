// Package telemetry provides OpenTelemetry tracing for the client's
// authorize path. Tracing is opt-in: a zero-configuration client uses
// NoopProvider, so linking the library never forces a caller to run a
// collector.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config selects the trace exporter for one client.
type Config struct {
	Enabled     bool   `yaml:"enabled"`
	Exporter    string `yaml:"exporter"` // "otlp", "stdout", or "none"
	Endpoint    string `yaml:"endpoint"` // OTLP endpoint (e.g. "localhost:4317")
	ServiceName string `yaml:"service_name"`
	Insecure    bool   `yaml:"insecure"`
}

// Provider manages the OpenTelemetry tracer used for one client's spans.
type Provider struct {
	config   Config
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
}

// NewProvider creates a Provider from cfg, selecting an exporter and
// installing a synchronous TracerProvider. An unrecognized or "none"
// exporter disables tracing without returning an error.
func NewProvider(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{config: cfg, tracer: otel.Tracer("pep")}, nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "pep-client"
	}

	var exporter sdktrace.SpanExporter
	var err error
	switch cfg.Exporter {
	case "otlp":
		exporter, err = createOTLPExporter(cfg)
		if err != nil {
			return nil, err
		}
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
	default:
		return &Provider{config: cfg, tracer: otel.Tracer("pep")}, nil
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)

	return &Provider{config: cfg, tracer: tp.Tracer("pep"), provider: tp}, nil
}

func createOTLPExporter(cfg Config) (sdktrace.SpanExporter, error) {
	ctx := context.Background()
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return otlptracegrpc.New(ctx, opts...)
}

// Tracer returns the tracer used to start authorize-path spans.
func (p *Provider) Tracer() trace.Tracer { return p.tracer }

// Shutdown flushes and stops the underlying TracerProvider, if any.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider != nil {
		return p.provider.Shutdown(ctx)
	}
	return nil
}

// Enabled reports whether spans from this provider are actually exported.
func (p *Provider) Enabled() bool {
	return p.config.Enabled && p.provider != nil
}

// Span attributes attached to pep.authorize and its children.
const (
	AttrClientID      = "pep.client_id"
	AttrCorrelationID = "pep.correlation_id"
	AttrEndpoint      = "pep.endpoint"
	AttrDecision      = "pep.decision"
	AttrHTTPStatus    = "http.response.status_code"
	AttrByteCount     = "pep.byte_count"
)

// StartAuthorize opens the top-level pep.authorize span for one client call.
func (p *Provider) StartAuthorize(ctx context.Context, clientID uint64, correlationID, endpoint string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, "pep.authorize",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Int64(AttrClientID, int64(clientID)),
			attribute.String(AttrCorrelationID, correlationID),
			attribute.String(AttrEndpoint, endpoint),
		),
	)
}

// StartChild opens one of the pep.authorize child spans: pep.marshal,
// pep.transport.post, pep.unmarshal, pep.preprocessors, pep.postprocessors.
func (p *Provider) StartChild(ctx context.Context, name string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, name)
}

// EndAuthorize finalizes the top-level span with the call's outcome.
func (p *Provider) EndAuthorize(span trace.Span, decision string, httpStatus int, err error) {
	if decision != "" {
		span.SetAttributes(attribute.String(AttrDecision, decision))
	}
	if httpStatus != 0 {
		span.SetAttributes(attribute.Int(AttrHTTPStatus, httpStatus))
	}
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

// DefaultConfig returns telemetry disabled, the library's zero-configuration
// default.
func DefaultConfig() Config {
	return Config{Enabled: false, Exporter: "none", ServiceName: "pep-client"}
}

// NoopProvider returns a Provider that creates spans nobody exports.
func NoopProvider() *Provider {
	return &Provider{config: Config{Enabled: false}, tracer: otel.Tracer("pep-noop")}
}

// ContextWithTimeout creates a context with a timeout, used when shutting
// down a Provider during client Destroy.
func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
