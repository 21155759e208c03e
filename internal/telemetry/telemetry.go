package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	ServiceName = "translation-orders-intake"

	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

var ErrUnknownExporter = errors.New("unknown trace exporter")

type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// ValidExporter reports whether name selects a supported exporter. Empty means none.
func ValidExporter(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ExporterNone, ExporterStdout:
		return true
	}
	return false
}

// NewProvider builds a batching tracer provider tagged with the service name.
func NewProvider(exporter sdktrace.SpanExporter) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", ServiceName))),
	)
}

// Setup installs the global tracer provider for the named exporter.
// With no exporter the global no-op provider is left in place.
func Setup(exporter string, out io.Writer) (ShutdownFunc, error) {
	switch strings.ToLower(strings.TrimSpace(exporter)) {
	case "", ExporterNone:
		return noopShutdown, nil
	case ExporterStdout:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, exporter)
	}

	spanExporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return nil, fmt.Errorf("trace exporter was not created: %w", err)
	}

	provider := NewProvider(spanExporter)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}
