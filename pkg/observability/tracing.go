package observability

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used for every span
const TracerName = "github.com/platinummonkey/cssprep"

// Tracer returns the tracer from the global provider
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// TracingConfig holds tracer provider configuration
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
}

// InitTracing installs a global tracer provider that reports finished spans
// through the logger at debug level. The returned provider must be shut down
// to flush spans.
func InitTracing(cfg TracingConfig, log logrus.FieldLogger) *sdktrace.TracerProvider {
	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSyncer(NewLogExporter(log)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp
}

// LogExporter is a span exporter that writes spans to a logrus logger
type LogExporter struct {
	log logrus.FieldLogger
}

// NewLogExporter creates a span exporter backed by log
func NewLogExporter(log logrus.FieldLogger) *LogExporter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogExporter{log: log}
}

// ExportSpans logs each span with its duration, status and attributes
func (e *LogExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		fields := logrus.Fields{
			"span":     span.Name(),
			"trace_id": span.SpanContext().TraceID().String(),
			"duration": span.EndTime().Sub(span.StartTime()).Round(time.Microsecond).String(),
		}
		for _, kv := range span.Attributes() {
			fields[string(kv.Key)] = kv.Value.Emit()
		}

		entry := e.log.WithFields(fields)
		if span.Status().Code == codes.Error {
			entry.WithField("status", span.Status().Description).Debug("Span failed")
			continue
		}
		entry.Debug("Span finished")
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter
func (e *LogExporter) Shutdown(ctx context.Context) error {
	return nil
}
