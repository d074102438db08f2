// Package command handles client command lines that are not sent to the game.
// It currently understands "#window <add|show|hide|list> <name>" and turns it
// into a window request for the UI.
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/outlander/component"
	"github.com/c360/outlander/errors"
	"github.com/c360/outlander/message"
	"github.com/c360/outlander/natsclient"
)

// Config holds configuration for the command processor
type Config struct {
	Ports *component.PortConfig `json:"ports" schema:"type:ports,description:Port configuration,category:basic"`
}

// DefaultConfig returns the default configuration for the command processor
func DefaultConfig() Config {
	return Config{
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "commands",
					Type:        "nats",
					Subject:     "outlander.commands",
					Interface:   CommandType.String(),
					Required:    true,
					Description: "Command lines typed by the user",
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        "window",
					Type:        "nats",
					Subject:     "outlander.window",
					Interface:   WindowType.String(),
					Required:    true,
					Description: "Window requests for the UI",
				},
			},
		},
	}
}

var commandSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

type messageBus interface {
	Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) (natsclient.Subscription, error)
	Publish(ctx context.Context, subject string, data []byte) error
}

// Processor routes window commands to the UI
type Processor struct {
	name          string
	config        Config
	inputs        []string
	windowSubject string
	bus           messageBus
	subs          []natsclient.Subscription
	logger        *slog.Logger

	running     bool
	startTime   time.Time
	mu          sync.RWMutex
	lifecycleMu sync.Mutex

	commandsSeen int64
	windowsSent  int64
	errors       int64
	lastActivity time.Time

	metrics *commandMetrics
}

// NewProcessor creates a command processor from configuration
func NewProcessor(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	config := DefaultConfig()
	if err := component.SafeUnmarshal(rawConfig, &config); err != nil {
		return nil, errors.WrapInvalid(err, "CommandProcessor", "NewProcessor", "config unmarshal")
	}
	if config.Ports == nil {
		config.Ports = DefaultConfig().Ports
	}

	inputs := component.Subjects(config.Ports.Inputs)
	outputs := component.Subjects(config.Ports.Outputs)
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "CommandProcessor", "NewProcessor",
			"input and output subjects required")
	}

	name := "command-processor"
	logger := deps.GetLoggerWithComponent(name)

	metrics, err := newCommandMetrics(deps.MetricsRegistry)
	if err != nil {
		logger.Error("Failed to initialize command metrics", "error", err)
		metrics = nil
	}

	p := &Processor{
		name:          name,
		config:        config,
		inputs:        inputs,
		windowSubject: outputs[0],
		logger:        logger,
		metrics:       metrics,
	}
	if deps.NATSClient != nil {
		p.bus = deps.NATSClient
	}
	return p, nil
}

// Initialize prepares the processor (no-op)
func (p *Processor) Initialize() error {
	return nil
}

// Start subscribes to the command subjects
func (p *Processor) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "CommandProcessor", "Start", "check running state")
	}
	if p.bus == nil {
		return errors.WrapFatal(errors.ErrMissingConfig, "CommandProcessor", "Start", "NATS client required")
	}

	p.mu.Lock()
	p.running = true
	p.startTime = time.Now()
	p.mu.Unlock()

	for _, subject := range p.inputs {
		sub, err := p.bus.Subscribe(ctx, subject, p.handleMessage)
		if err != nil {
			_ = natsclient.UnsubscribeAll(p.subs)
			p.subs = nil
			p.mu.Lock()
			p.running = false
			p.mu.Unlock()
			return errors.WrapTransient(err, "CommandProcessor", "Start", fmt.Sprintf("subscribe to %s", subject))
		}
		p.subs = append(p.subs, sub)
	}

	p.logger.Info("Command processor started",
		"input_subjects", p.inputs,
		"window_subject", p.windowSubject)
	return nil
}

// Stop unsubscribes and stops accepting commands
func (p *Processor) Stop(_ time.Duration) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	err := natsclient.UnsubscribeAll(p.subs)
	p.subs = nil
	if err != nil {
		return errors.Wrap(err, "CommandProcessor", "Stop", "unsubscribe")
	}
	return nil
}

func (p *Processor) handleMessage(ctx context.Context, msgData []byte) {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.lastActivity = time.Now()
	p.mu.Unlock()

	atomic.AddInt64(&p.commandsSeen, 1)

	var baseMsg message.BaseMessage
	if err := json.Unmarshal(msgData, &baseMsg); err != nil {
		p.fail("Failed to parse command message", err)
		return
	}
	cmd, ok := baseMsg.Payload().(*CommandPayload)
	if !ok {
		p.fail("Payload is not a command", fmt.Errorf("%w: %s", errors.ErrUnknownPayload, baseMsg.Type()))
		return
	}

	if err := p.Handle(ctx, cmd.Line); err != nil {
		p.fail("Failed to handle command", err)
	}
}

// Handle runs one command line. Lines for other handlers are ignored; a
// malformed window command is reported and dropped.
func (p *Processor) Handle(ctx context.Context, line string) error {
	if !IsWindowCommand(line) {
		p.metrics.record(p.name, "ignored")
		return nil
	}

	window, err := ParseWindowCommand(line)
	if err != nil {
		p.metrics.record(p.name, "rejected")
		p.logger.Debug("Rejected window command", "line", line, "error", err)
		return nil
	}

	data, err := json.Marshal(message.NewBaseMessage(WindowType, &window, p.name))
	if err != nil {
		return errors.Wrap(err, "CommandProcessor", "Handle", "marshal window request")
	}
	if err := p.bus.Publish(ctx, p.windowSubject, data); err != nil {
		return errors.WrapTransient(err, "CommandProcessor", "Handle", "publish to "+p.windowSubject)
	}

	atomic.AddInt64(&p.windowsSent, 1)
	p.metrics.record(p.name, "window")
	p.logger.Debug("Window request sent", "action", window.Action, "window", window.Window)
	return nil
}

func (p *Processor) fail(msg string, err error) {
	atomic.AddInt64(&p.errors, 1)
	p.metrics.record(p.name, "error")
	p.logger.Warn(msg, "error", err)
}

// Meta returns metadata describing this processor component.
func (p *Processor) Meta() component.Metadata {
	return component.Metadata{
		Name:        p.name,
		Type:        "processor",
		Description: "Client command handler for #window",
		Version:     "0.1.0",
	}
}

// InputPorts returns the command subjects.
func (p *Processor) InputPorts() []component.Port {
	ports := make([]component.Port, 0, len(p.config.Ports.Inputs))
	for _, def := range p.config.Ports.Inputs {
		ports = append(ports, component.BuildPortFromDefinition(def, component.DirectionInput))
	}
	return ports
}

// OutputPorts returns the window request subject.
func (p *Processor) OutputPorts() []component.Port {
	ports := make([]component.Port, 0, len(p.config.Ports.Outputs))
	for _, def := range p.config.Ports.Outputs {
		ports = append(ports, component.BuildPortFromDefinition(def, component.DirectionOutput))
	}
	return ports
}

// ConfigSchema returns the configuration schema for this processor.
func (p *Processor) ConfigSchema() component.ConfigSchema {
	return commandSchema
}

// Health returns the current health status of this processor.
func (p *Processor) Health() component.HealthStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var uptime time.Duration
	if p.running {
		uptime = time.Since(p.startTime)
	}
	return component.HealthStatus{
		Healthy:    p.running,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&p.errors)),
		Uptime:     uptime,
	}
}

// DataFlow returns current data flow metrics for this processor.
func (p *Processor) DataFlow() component.FlowMetrics {
	p.mu.RLock()
	defer p.mu.RUnlock()

	seen := atomic.LoadInt64(&p.commandsSeen)
	var errorRate float64
	if seen > 0 {
		errorRate = float64(atomic.LoadInt64(&p.errors)) / float64(seen)
	}
	return component.FlowMetrics{
		ErrorRate:    errorRate,
		LastActivity: p.lastActivity,
	}
}

// Register registers the command processor with the given registry
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "command",
		Factory:     NewProcessor,
		Schema:      commandSchema,
		Type:        "processor",
		Protocol:    "command",
		Domain:      "game",
		Description: "Handles #window client commands",
		Version:     "0.1.0",
	})
}
