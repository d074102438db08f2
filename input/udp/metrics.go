package udp

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/outlander/metric"
)

// Metrics holds Prometheus metrics for the UDP node feed
type Metrics struct {
	datagramsReceived prometheus.Counter
	bytesReceived     prometheus.Counter
	datagramsDropped  prometheus.Counter
	batchesPublished  prometheus.Counter
	queueDepth        prometheus.Gauge
	batchNodes        prometheus.Histogram
	publishLatency    prometheus.Histogram
	errorsTotal       *prometheus.CounterVec // By error_type
	lastActivity      prometheus.Gauge
}

// newMetrics creates and registers the metrics. A nil registry disables them.
func newMetrics(registry *metric.MetricsRegistry) (*Metrics, error) {
	if registry == nil {
		return nil, nil
	}

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "udp",
			Name:      name,
			Help:      help,
		})
	}

	m := &Metrics{
		datagramsReceived: counter("datagrams_received_total", "Datagrams read from the socket"),
		bytesReceived:     counter("bytes_received_total", "Bytes read from the socket"),
		datagramsDropped:  counter("datagrams_dropped_total", "Datagrams dropped because the queue was full"),
		batchesPublished:  counter("batches_published_total", "Node batches published to the bus"),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metric.Namespace,
			Subsystem: "udp",
			Name:      "queue_depth",
			Help:      "Datagrams waiting to be published",
		}),
		batchNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metric.Namespace,
			Subsystem: "udp",
			Name:      "batch_nodes",
			Help:      "Nodes per received batch",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 200},
		}),
		publishLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metric.Namespace,
			Subsystem: "udp",
			Name:      "publish_duration_seconds",
			Help:      "Time to publish one node batch",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "udp",
			Name:      "errors_total",
			Help:      "UDP input errors",
		}, []string{"error_type"}),
		lastActivity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metric.Namespace,
			Subsystem: "udp",
			Name:      "last_activity_timestamp",
			Help:      "Unix timestamp of the last datagram",
		}),
	}

	for name, c := range map[string]prometheus.Counter{
		"datagrams_received": m.datagramsReceived,
		"bytes_received":     m.bytesReceived,
		"datagrams_dropped":  m.datagramsDropped,
		"batches_published":  m.batchesPublished,
	} {
		if err := registry.RegisterCounter("udp", name, c); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterGauge("udp", "queue_depth", m.queueDepth); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge("udp", "last_activity", m.lastActivity); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogram("udp", "batch_nodes", m.batchNodes); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogram("udp", "publish_latency", m.publishLatency); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("udp", "errors", m.errorsTotal); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) recordDatagram(bytes int) {
	if m == nil {
		return
	}
	m.datagramsReceived.Inc()
	m.bytesReceived.Add(float64(bytes))
	m.lastActivity.SetToCurrentTime()
}

func (m *Metrics) recordDropped() {
	if m == nil {
		return
	}
	m.datagramsDropped.Inc()
}

func (m *Metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) recordPublished(nodes int, d time.Duration) {
	if m == nil {
		return
	}
	m.batchesPublished.Inc()
	m.batchNodes.Observe(float64(nodes))
	m.publishLatency.Observe(d.Seconds())
}

func (m *Metrics) recordError(errorType string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(errorType).Inc()
}
