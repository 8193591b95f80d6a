package telemetry

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const DefaultServiceName = "message-panel"

// Setup installs a global tracer provider exporting to OTEL_EXPORTER_OTLP_ENDPOINT.
// When the endpoint is not set tracing stays a no-op and the returned
// shutdown func does nothing.
func Setup(ctx context.Context) (shutdown func(context.Context) error, err error) {
	shutdown = func(context.Context) error { return nil }

	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return shutdown, nil
	}

	// The exporter reads the endpoint URL, scheme and path from the env itself
	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return shutdown, err
	}

	serviceName := os.Getenv("OTEL_SERVICE_NAME")
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return provider.Shutdown, nil
}
