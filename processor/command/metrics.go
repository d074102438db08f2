package command

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/outlander/metric"
)

type commandMetrics struct {
	commands *prometheus.CounterVec // By component and result (window, ignored, rejected, error)
}

func newCommandMetrics(registry *metric.MetricsRegistry) (*commandMetrics, error) {
	if registry == nil {
		return nil, nil
	}

	m := &commandMetrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "command",
			Name:      "commands_total",
			Help:      "Command lines seen by result",
		}, []string{"component", "result"}),
	}

	if err := registry.RegisterCounterVec("command", "commands", m.commands); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *commandMetrics) record(component, result string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(component, result).Inc()
}
