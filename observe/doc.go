// Package observe provides graph.TraceHook implementations for OpenTelemetry
// tracing and Prometheus metrics. Both can be attached to the same tracer:
//
//	tracer := graph.NewTracer(
//		observe.NewOTelHook(otel.Tracer("graphflow")),
//		observe.NewMetrics(prometheus.DefaultRegisterer),
//	)
package observe
