// Package tracing configures OpenTelemetry tracing for the HTTP server.
//
// When tracing is disabled the global no-op provider stays in place and
// Handler returns the handler it was given, so callers never branch on it.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/okian/sentio/pkg/logger"
)

// ErrInit wraps failures while building the tracer provider.
var ErrInit = errors.New("tracing init failed")

// Config describes where spans are exported.
type Config struct {
	Enabled     bool
	Endpoint    string
	Insecure    bool
	ServiceName string
	Version     string
}

// Provider owns the SDK tracer provider, if any.
type Provider struct {
	tp *sdktrace.TracerProvider
}

type options struct {
	exporter sdktrace.SpanExporter
	syncer   bool
}

// Option applies a configuration option to Init.
type Option func(*options)

// WithExporter replaces the OTLP exporter, mainly for tests. Spans are
// exported synchronously.
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) {
		if exp != nil {
			o.exporter = exp
			o.syncer = true
		}
	}
}

// Init installs a global tracer provider and W3C propagators when tracing
// is enabled.
func Init(ctx context.Context, cfg Config, opts ...Option) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	exporter := o.exporter
	if exporter == nil {
		exp, err := otlptrace.New(ctx, otlptracehttp.NewClient(clientOptions(cfg)...))
		if err != nil {
			return nil, fmt.Errorf("%w: create OTLP trace exporter: %w", ErrInit, err)
		}
		exporter = exp
	}

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(buildResource(ctx, cfg))}
	if o.syncer {
		tpOpts = append(tpOpts, sdktrace.WithSyncer(exporter))
	} else {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)

	// Set the global TracerProvider to the SDK's TracerProvider.
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{tp: tp}, nil
}

// Enabled reports whether spans are being exported.
func (p *Provider) Enabled() bool {
	return p != nil && p.tp != nil
}

// Handler wraps h so every request starts a server span named after its
// method and path.
func (p *Provider) Handler(h http.Handler, operation string) http.Handler {
	if !p.Enabled() {
		return h
	}
	return otelhttp.NewHandler(h, operation,
		otelhttp.WithTracerProvider(p.tp),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Shutdown flushes pending spans and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	return nil
}

// clientOptions accepts either host:port or a full http(s) URL.
func clientOptions(cfg Config) []otlptracehttp.Option {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	insecure := cfg.Insecure
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = strings.TrimPrefix(endpoint, "http://")
		insecure = true
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}
	endpoint = strings.TrimSuffix(endpoint, "/")

	var opts []otlptracehttp.Option
	if endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
	}
	if insecure {
		// Local collectors usually run without TLS.
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

// buildResource describes this process. GCP attributes are added when the
// process runs on Google Cloud; detection problems only cost those attributes.
func buildResource(ctx context.Context, cfg Config) *resource.Resource {
	attrs := resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.Version),
	)
	res, err := resource.New(ctx,
		resource.WithDetectors(gcp.NewDetector()),
		resource.WithTelemetrySDK(),
		attrs,
	)
	if err == nil {
		return res
	}

	logger.Named("tracing").Warn(ctx, "resource detection incomplete", logger.Error(err))
	res, err = resource.New(ctx, resource.WithTelemetrySDK(), attrs)
	if err != nil {
		return resource.Default()
	}
	return res
}
