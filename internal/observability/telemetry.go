package observability

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultServiceName = "dtt"
	defaultNamespace   = "dtt"
	defaultEnvironment = "development"
)

// TelemetryConfig holds the configuration for OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Namespace   string
	Version     string
	Commit      string
	Environment string
}

// TelemetryFromEnv builds a config from OTEL_ENABLED, OTEL_SERVICE_NAME and
// OTEL_ENVIRONMENT. The exporter endpoint is left to the OTLP env vars.
func TelemetryFromEnv(version, commit string) *TelemetryConfig {
	return &TelemetryConfig{
		Enabled:     IsTelemetryEnabled(),
		ServiceName: os.Getenv("OTEL_SERVICE_NAME"),
		Environment: os.Getenv("OTEL_ENVIRONMENT"),
		Version:     version,
		Commit:      commit,
	}
}

// TelemetryShutdown flushes and shuts down the telemetry pipeline.
type TelemetryShutdown func(ctx context.Context) error

// SetupTelemetry installs an OTLP/HTTP tracing pipeline as the global
// TracerProvider. When disabled or cfg is nil the globals are untouched and
// spans from Tracer are no-ops. Shutdown restores the previous globals even
// when the flush fails.
func SetupTelemetry(ctx context.Context, cfg *TelemetryConfig) (TelemetryShutdown, error) {
	if cfg == nil || !cfg.Enabled {
		return noopShutdown, nil
	}

	res, err := resourceFor(cfg)
	if err != nil {
		return noopShutdown, err
	}

	exporterOpts := []otlptracehttp.Option{
		otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
	}

	if cfg.Endpoint != "" {
		exporterOpts = append(exporterOpts, otlptracehttp.WithEndpoint(cfg.Endpoint))
	}

	exporter, err := otlptracehttp.New(ctx, exporterOpts...)
	if err != nil {
		return noopShutdown, fmt.Errorf("create otel exporter: %w", err)
	}

	origTP := otel.GetTracerProvider()
	origPropagator := otel.GetTextMapPropagator()
	origErrorHandler := otel.GetErrorHandler()

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Export failures must never reach the interactive terminal.
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(error) {}))

	return func(shutdownCtx context.Context) error {
		err := provider.Shutdown(shutdownCtx)

		otel.SetTracerProvider(origTP)
		otel.SetTextMapPropagator(origPropagator)
		otel.SetErrorHandler(origErrorHandler)

		if err != nil {
			return fmt.Errorf("shutdown otel provider: %w", err)
		}

		return nil
	}, nil
}

func resourceFor(cfg *TelemetryConfig) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		attribute.String("service.name", firstNonEmpty(cfg.ServiceName, defaultServiceName)),
		attribute.String("service.version", cfg.Version),
		attribute.String("service.namespace", firstNonEmpty(cfg.Namespace, defaultNamespace)),
		attribute.String("deployment.environment", firstNonEmpty(cfg.Environment, defaultEnvironment)),
	}

	if cfg.Commit != "" {
		attrs = append(attrs, attribute.String("service.commit", cfg.Commit))
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
	if err != nil {
		return nil, fmt.Errorf("merge otel resource: %w", err)
	}

	return res, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}

	return ""
}

// Tracer returns a named tracer from the global TracerProvider.
func Tracer(name string) trace.Tracer {
	return otel.GetTracerProvider().Tracer(name)
}

// IsTelemetryEnabled checks the OTEL_ENABLED env var.
func IsTelemetryEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_ENABLED")))
	return v == "1" || v == "true" || v == "yes"
}

func noopShutdown(context.Context) error { return nil }
