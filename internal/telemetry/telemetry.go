package telemetry

import (
	"context"
	"fmt"

	"github.com/fakhrymubarak/weather-lookup/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

// Setup installs the global tracer provider and W3C trace-context propagation.
// Spans are exported to Zipkin when zipkinURL is set and dropped otherwise.
// The returned function flushes and stops the provider.
func Setup(serviceName, zipkinURL string) (func(context.Context) error, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		)),
	}
	if zipkinURL != "" {
		exporter, err := zipkin.New(zipkinURL)
		if err != nil {
			return nil, fmt.Errorf("creating zipkin exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
		config.GetLogger().Infow("Exporting spans to zipkin", "url", zipkinURL, "service", serviceName)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp.Shutdown, nil
}

// SetupFromConfig calls Setup with tracing.service_name and tracing.zipkin_url.
func SetupFromConfig() (func(context.Context) error, error) {
	return Setup(config.GetTracingServiceName(), config.GetTracingZipkinURL())
}

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}
