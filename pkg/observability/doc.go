// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Structured Logging
//
// Create logger:
//
//	logger, err := observability.NewLogger("debug", observability.FormatJSON, os.Stderr)
//	logger.WithField("run_id", id).Info("Preprocessing started")
//
// # Prometheus Metrics
//
// Register metrics and write them out after a one-shot run:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.IncWrite("written")
//	err := observability.WriteTextfile("/var/lib/node_exporter/cssprep.prom", registry)
//
// A nil *Metrics records nothing, so library callers may omit it.
//
// # OpenTelemetry
//
// Initialize tracing:
//
//	tp := observability.InitTracing(observability.TracingConfig{
//		ServiceName:    "cssprep",
//		ServiceVersion: "1.0.0",
//	}, logger)
//	defer tp.Shutdown(ctx)
//
// Finished spans are logged at debug level.
//
// # Shutdown
//
// ShutdownManager runs cleanup functions (cache close, tracer flush,
// metrics textfile) concurrently with a timeout when the CLI exits.
package observability
