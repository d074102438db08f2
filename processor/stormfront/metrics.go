package stormfront

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/outlander/metric"
)

// streamMetrics holds Prometheus metrics for the stream tag processor.
type streamMetrics struct {
	batches  *prometheus.CounterVec   // By component
	nodes    *prometheus.CounterVec   // By component
	tags     *prometheus.CounterVec   // By component
	settings *prometheus.CounterVec   // By component
	events   *prometheus.CounterVec   // By component and kind
	errors   *prometheus.CounterVec   // By component and error_type
	duration *prometheus.HistogramVec // By component
}

// newStreamMetrics creates and registers the metrics. A nil registry disables them.
func newStreamMetrics(registry *metric.MetricsRegistry) (*streamMetrics, error) {
	if registry == nil {
		return nil, nil
	}

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "stormfront",
			Name:      name,
			Help:      help,
		}, append([]string{"component"}, labels...))
	}

	m := &streamMetrics{
		batches:  counter("batches_total", "Node batches processed"),
		nodes:    counter("nodes_total", "Protocol nodes processed"),
		tags:     counter("tags_total", "Text tags produced"),
		settings: counter("settings_total", "Game settings emitted"),
		events:   counter("events_total", "Game events emitted", "kind"),
		errors:   counter("errors_total", "Processing errors", "error_type"), // parse, type, validation, publish, kv
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metric.Namespace,
			Subsystem: "stormfront",
			Name:      "batch_duration_seconds",
			Help:      "Time to stream one node batch",
			Buckets:   []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, []string{"component"}),
	}

	for name, vec := range map[string]*prometheus.CounterVec{
		"batches":  m.batches,
		"nodes":    m.nodes,
		"tags":     m.tags,
		"settings": m.settings,
		"events":   m.events,
		"errors":   m.errors,
	} {
		if err := registry.RegisterCounterVec("stormfront", name, vec); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterHistogramVec("stormfront", "batch_duration", m.duration); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *streamMetrics) recordBatch(component string, nodes, tags int, duration time.Duration) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(component).Inc()
	m.nodes.WithLabelValues(component).Add(float64(nodes))
	m.tags.WithLabelValues(component).Add(float64(tags))
	m.duration.WithLabelValues(component).Observe(duration.Seconds())
}

func (m *streamMetrics) recordSetting(component string) {
	if m == nil {
		return
	}
	m.settings.WithLabelValues(component).Inc()
}

func (m *streamMetrics) recordEvent(component, kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(component, kind).Inc()
}

func (m *streamMetrics) recordError(component, errorType string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(component, errorType).Inc()
}
