package observability

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// TracingConfig governs how tracing is initialised
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    string // stdout | none
}

// InitTracing installs a global tracer provider. Spans are written to w when
// the stdout exporter is selected. The returned function flushes and stops
// the provider.
func InitTracing(ctx context.Context, cfg TracingConfig, w io.Writer, log *zap.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if !cfg.Enabled || strings.EqualFold(cfg.Exporter, "none") {
		otel.SetTracerProvider(noop.NewTracerProvider())
		log.Debug("tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	var exp sdktrace.SpanExporter
	switch strings.ToLower(cfg.Exporter) {
	case "stdout", "":
		e, err := stdouttrace.New(
			stdouttrace.WithWriter(w),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		exp = e
	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", cfg.Exporter)
	}

	service := cfg.ServiceName
	if service == "" {
		service = "hydraimport"
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", service),
	))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	log.Info("tracing enabled", zap.String("exporter", cfg.Exporter), zap.String("service_name", service))
	return tp.Shutdown, nil
}

// Tracer returns a named tracer from the global provider
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// ShutdownWithTimeout calls shutdown with a bounded timeout and logs failures
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log *zap.Logger) {
	if shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil && log != nil {
		log.Warn("tracing shutdown failed", zap.Error(err))
	}
}
