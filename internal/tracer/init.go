package tracer

import (
	"context"
	"os"
	"strconv"

	"book-rag-be/internal/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const tracerModule = "TRACER"

// Options controls the OTLP exporter. Zero values fall back to the
// OTEL_* environment variables.
type Options struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
}

// OptionsFromEnv reads OTEL_ENABLED, OTEL_EXPORTER_OTLP_ENDPOINT and
// OTEL_SAMPLE_RATIO. Tracing is off unless OTEL_ENABLED=true.
func OptionsFromEnv() Options {
	opts := Options{
		Enabled:     os.Getenv("OTEL_ENABLED") == "true",
		Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		SampleRatio: 1,
	}
	if opts.Endpoint == "" {
		opts.Endpoint = "localhost:4318"
	}
	if r, err := strconv.ParseFloat(os.Getenv("OTEL_SAMPLE_RATIO"), 64); err == nil && r >= 0 && r <= 1 {
		opts.SampleRatio = r
	}
	return opts
}

// InitTracer installs the global tracer provider used by the pipeline spans
// and the fiber middleware. The returned function flushes pending spans.
func InitTracer(serviceName, version string, opts Options, log logger.ILogger) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	if !opts.Enabled {
		log.Info(tracerModule, "Tracing disabled", nil)
		return noop
	}

	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(opts.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		log.Warn(tracerModule, "OTLP exporter unavailable, tracing disabled", map[string]interface{}{
			"endpoint": opts.Endpoint,
			"error":    err.Error(),
		})
		return noop
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SampleRatio))),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version),
		)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	log.Info(tracerModule, "Tracing enabled", map[string]interface{}{
		"service":      serviceName,
		"endpoint":     opts.Endpoint,
		"sample_ratio": opts.SampleRatio,
	})

	return tp.Shutdown
}
