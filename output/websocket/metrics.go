package websocket

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/outlander/metric"
)

// Metrics holds Prometheus metrics for the WebSocket output
type Metrics struct {
	messagesReceived   *prometheus.CounterVec // By subject
	messagesSent       *prometheus.CounterVec // By subject
	bytesSent          prometheus.Counter
	clientsConnected   prometheus.Gauge
	connectionTotal    prometheus.Counter
	disconnectionTotal *prometheus.CounterVec // By disconnect_reason
	commandsForwarded  prometheus.Counter
	broadcastDuration  *prometheus.HistogramVec
	errorsTotal        *prometheus.CounterVec // By error_type
}

// newMetrics creates and registers the metrics. A nil registry disables them.
func newMetrics(registry *metric.MetricsRegistry) (*Metrics, error) {
	if registry == nil {
		return nil, nil
	}

	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "websocket",
			Name:      name,
			Help:      help,
		}
	}

	m := &Metrics{
		messagesReceived:   prometheus.NewCounterVec(opts("messages_received_total", "Bus messages received"), []string{"subject"}),
		messagesSent:       prometheus.NewCounterVec(opts("messages_sent_total", "Messages written to clients"), []string{"subject"}),
		bytesSent:          prometheus.NewCounter(opts("bytes_sent_total", "Bytes written to clients")),
		connectionTotal:    prometheus.NewCounter(opts("client_connections_total", "Client connections accepted")),
		disconnectionTotal: prometheus.NewCounterVec(opts("client_disconnections_total", "Client disconnections"), []string{"disconnect_reason"}),
		commandsForwarded:  prometheus.NewCounter(opts("commands_forwarded_total", "Client command lines published to the bus")),
		errorsTotal:        prometheus.NewCounterVec(opts("errors_total", "WebSocket output errors"), []string{"error_type"}),
		clientsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metric.Namespace,
			Subsystem: "websocket",
			Name:      "clients_connected",
			Help:      "Currently connected clients",
		}),
		broadcastDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metric.Namespace,
			Subsystem: "websocket",
			Name:      "broadcast_duration_seconds",
			Help:      "Time to write one message to every client",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"subject"}),
	}

	for name, vec := range map[string]*prometheus.CounterVec{
		"messages_received":     m.messagesReceived,
		"messages_sent":         m.messagesSent,
		"client_disconnections": m.disconnectionTotal,
		"errors":                m.errorsTotal,
	} {
		if err := registry.RegisterCounterVec("websocket", name, vec); err != nil {
			return nil, err
		}
	}
	for name, counter := range map[string]prometheus.Counter{
		"bytes_sent":         m.bytesSent,
		"client_connections": m.connectionTotal,
		"commands_forwarded": m.commandsForwarded,
	} {
		if err := registry.RegisterCounter("websocket", name, counter); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterGauge("websocket", "clients_connected", m.clientsConnected); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec("websocket", "broadcast_duration", m.broadcastDuration); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) recordReceived(subject string) {
	if m == nil {
		return
	}
	m.messagesReceived.WithLabelValues(subject).Inc()
}

func (m *Metrics) recordSent(subject string, bytes int) {
	if m == nil {
		return
	}
	m.messagesSent.WithLabelValues(subject).Inc()
	m.bytesSent.Add(float64(bytes))
}

func (m *Metrics) recordBroadcast(subject string, d time.Duration) {
	if m == nil {
		return
	}
	m.broadcastDuration.WithLabelValues(subject).Observe(d.Seconds())
}

func (m *Metrics) recordConnect(clients int) {
	if m == nil {
		return
	}
	m.connectionTotal.Inc()
	m.clientsConnected.Set(float64(clients))
}

func (m *Metrics) recordDisconnect(reason string, clients int) {
	if m == nil {
		return
	}
	m.disconnectionTotal.WithLabelValues(reason).Inc()
	m.clientsConnected.Set(float64(clients))
}

func (m *Metrics) recordCommand() {
	if m == nil {
		return
	}
	m.commandsForwarded.Inc()
}

func (m *Metrics) recordError(errorType string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(errorType).Inc()
}
