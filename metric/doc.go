// Package metric provides the Prometheus metrics registry and HTTP server.
//
// NewMetricsRegistry creates a private Prometheus registry with the core
// service metrics (component status, messages received and published,
// processing duration, errors, NATS connection) plus the Go runtime and
// process collectors. Components register their own collectors through the
// MetricsRegistrar methods, keyed by component and metric name:
//
//	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
//	    Namespace: metric.Namespace,
//	    Subsystem: "stormfront",
//	    Name:      "tags_total",
//	    Help:      "Text tags produced",
//	}, []string{"component"})
//	if err := registry.RegisterCounterVec("stormfront", "tags_total", counter); err != nil {
//	    return err
//	}
//
// Server exposes the registry at /metrics and a health report at /health.
// The health callback keeps this package independent of the health package.
package metric
