package component

import (
	"log/slog"

	"github.com/c360/outlander/metric"
	"github.com/c360/outlander/natsclient"
	"github.com/c360/outlander/types"
)

// PlatformMeta aliases types.PlatformMeta so factories need only this package.
type PlatformMeta = types.PlatformMeta

// Dependencies holds the shared services handed to component factories.
type Dependencies struct {
	NATSClient      *natsclient.Client      // NATS client for messaging and the state bucket
	MetricsRegistry *metric.MetricsRegistry // Prometheus registry (can be nil)
	Logger          *slog.Logger            // Structured logger (can be nil, defaults to slog.Default())
	Platform        PlatformMeta            // Which client instance this is
}

// GetLogger returns the configured logger or slog.Default().
func (d *Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// GetLoggerWithComponent returns a logger tagged with the component name.
func (d *Dependencies) GetLoggerWithComponent(componentName string) *slog.Logger {
	return d.GetLogger().With("component", componentName)
}
