// Package file provides a file output component that keeps a transcript of bus
// messages on disk.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/outlander/component"
	"github.com/c360/outlander/errors"
	"github.com/c360/outlander/message"
	"github.com/c360/outlander/natsclient"
	"github.com/c360/outlander/processor/stormfront"
)

// Output formats
const (
	FormatJSONL = "jsonl" // {"subject": ..., "data": <message>} per line
	FormatText  = "text"  // rendered tag text of one window, as the player saw it
)

// Config holds configuration for file output component
type Config struct {
	Ports         *component.PortConfig `json:"ports"          schema:"type:ports,description:Port configuration,category:basic"`
	Format        string                `json:"format"         schema:"type:enum,enum:jsonl|text,default:jsonl,category:basic"`
	Window        string                `json:"window"         schema:"type:string,description:Window rendered in text format (empty is main),category:basic"`
	Append        bool                  `json:"append"         schema:"type:bool,description:Append to an existing file,default:true,category:advanced"`
	BufferSize    int                   `json:"buffer_size"    schema:"type:int,description:Messages buffered before a flush,min:1,default:100,category:advanced"`
	FlushInterval string                `json:"flush_interval" schema:"type:string,description:Maximum time a message stays buffered,default:1s,category:advanced"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	switch c.Format {
	case FormatJSONL, FormatText:
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"format must be one of: jsonl, text")
	}

	if c.BufferSize < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"buffer_size must be positive")
	}

	if d, err := time.ParseDuration(c.FlushInterval); err != nil || d <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"flush_interval must be a positive duration")
	}

	if c.Ports != nil {
		if def, ok := component.FindPort(c.Ports.Outputs, "file"); !ok || def.Subject == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"file output port with a path is required")
		}
	}

	return nil
}

// DefaultConfig returns default configuration for file output
func DefaultConfig() Config {
	return Config{
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "input",
					Type:        "nats",
					Subject:     "outlander.tags",
					Interface:   stormfront.TagsType.String(),
					Required:    true,
					Description: "NATS subjects to record",
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        "file",
					Type:        "file",
					Subject:     "logs/outlander-transcript.jsonl",
					Description: "Transcript file path",
				},
			},
		},
		Format:        FormatJSONL,
		Append:        true,
		BufferSize:    100,
		FlushInterval: "1s",
	}
}

var fileSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

type subscriber interface {
	Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) (natsclient.Subscription, error)
}

type record struct {
	Subject string          `json:"subject"`
	Data    json.RawMessage `json:"data"`
}

// Output writes NATS messages to a file
type Output struct {
	name          string
	config        Config
	subjects      []string
	path          string
	flushInterval time.Duration
	bus           subscriber
	subs          []natsclient.Subscription
	logger        *slog.Logger

	// File handling
	file   *os.File
	writer *bufio.Writer
	fileMu sync.Mutex

	// Buffer for batching writes
	buffer   [][]byte
	bufferMu sync.Mutex

	// Lifecycle management
	shutdown    chan struct{}
	running     bool
	startTime   time.Time
	mu          sync.RWMutex
	lifecycleMu sync.Mutex
	wg          sync.WaitGroup

	// Metrics
	messagesWritten int64
	bytesWritten    int64
	errors          int64
	lastActivity    time.Time
}

// NewOutput creates a new file output from configuration
func NewOutput(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	config := DefaultConfig()
	if err := component.SafeUnmarshal(rawConfig, &config); err != nil {
		return nil, errors.WrapInvalid(err, "Output", "NewOutput", "config unmarshal")
	}
	if config.Ports == nil {
		config.Ports = DefaultConfig().Ports
	}

	subjects := component.Subjects(config.Ports.Inputs)
	if len(subjects) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Output", "NewOutput", "no input subjects configured")
	}

	def, ok := component.FindPort(config.Ports.Outputs, "file")
	if !ok || def.Subject == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Output", "NewOutput", "file output port required")
	}

	// Validated by Config.Validate.
	interval, _ := time.ParseDuration(config.FlushInterval)

	o := &Output{
		name:          "file-output",
		config:        config,
		subjects:      subjects,
		path:          def.Subject,
		flushInterval: interval,
		logger:        deps.GetLoggerWithComponent("file-output"),
		buffer:        make([][]byte, 0, config.BufferSize),
	}
	if deps.NATSClient != nil {
		o.bus = deps.NATSClient
	}
	return o, nil
}

// Initialize creates the directory of the output file
func (f *Output) Initialize() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return errors.WrapFatal(err, "Output", "Initialize", "create output directory")
	}
	return nil
}

// Start opens the file and subscribes to the input subjects
func (f *Output) Start(ctx context.Context) error {
	f.lifecycleMu.Lock()
	defer f.lifecycleMu.Unlock()

	if f.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Output", "Start", "check running state")
	}
	if f.bus == nil {
		return errors.WrapFatal(errors.ErrMissingConfig, "Output", "Start", "NATS client required")
	}

	flags := os.O_CREATE | os.O_WRONLY
	if f.config.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(f.path, flags, 0o644)
	if err != nil {
		return errors.WrapFatal(err, "Output", "Start", "open output file")
	}

	f.fileMu.Lock()
	f.file = file
	f.writer = bufio.NewWriter(file)
	f.fileMu.Unlock()

	f.mu.Lock()
	f.running = true
	f.startTime = time.Now()
	f.shutdown = make(chan struct{})
	f.mu.Unlock()

	for _, subject := range f.subjects {
		sub, err := f.bus.Subscribe(ctx, subject, f.handlerFor(subject))
		if err != nil {
			_ = natsclient.UnsubscribeAll(f.subs)
			f.subs = nil
			f.mu.Lock()
			f.running = false
			f.mu.Unlock()
			f.closeFile()
			return errors.WrapTransient(err, "Output", "Start", fmt.Sprintf("subscribe to %s", subject))
		}
		f.subs = append(f.subs, sub)
	}

	f.wg.Add(1)
	go f.flushLoop()

	f.logger.Info("File output started",
		"input_subjects", f.subjects,
		"output_file", f.path,
		"format", f.config.Format,
		"append", f.config.Append)

	return nil
}

// Stop flushes buffered messages and closes the file
func (f *Output) Stop(timeout time.Duration) error {
	f.lifecycleMu.Lock()
	defer f.lifecycleMu.Unlock()

	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return nil
	}
	f.running = false
	close(f.shutdown)
	f.mu.Unlock()

	if err := natsclient.UnsubscribeAll(f.subs); err != nil {
		f.logger.Warn("Failed to unsubscribe", "error", err)
	}
	f.subs = nil

	waitCh := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
	case <-time.After(timeout):
		return errors.WrapTransient(fmt.Errorf("shutdown timeout after %v", timeout), "Output", "Stop", "shutdown")
	}

	f.flush()
	f.closeFile()
	return nil
}

func (f *Output) closeFile() {
	f.fileMu.Lock()
	defer f.fileMu.Unlock()
	if f.file == nil {
		return
	}
	if err := f.writer.Flush(); err != nil {
		f.logger.Warn("Failed to flush output file", "error", err, "path", f.path)
	}
	if err := f.file.Close(); err != nil {
		f.logger.Warn("Failed to close output file", "error", err, "path", f.path)
	}
	f.file, f.writer = nil, nil
}

func (f *Output) handlerFor(subject string) func(context.Context, []byte) {
	return func(_ context.Context, msgData []byte) {
		f.mu.Lock()
		if !f.running {
			f.mu.Unlock()
			return
		}
		f.lastActivity = time.Now()
		f.mu.Unlock()

		line, ok := f.format(subject, msgData)
		if !ok {
			return
		}

		f.bufferMu.Lock()
		f.buffer = append(f.buffer, line)
		shouldFlush := len(f.buffer) >= f.config.BufferSize
		f.bufferMu.Unlock()

		if shouldFlush {
			f.flush()
		}
	}
}

// format renders one message. Messages that render nothing return false.
func (f *Output) format(subject string, msgData []byte) ([]byte, bool) {
	if f.config.Format == FormatText {
		var msg message.BaseMessage
		if err := json.Unmarshal(msgData, &msg); err != nil {
			f.fail("Failed to decode message for text transcript", err)
			return nil, false
		}
		tags, ok := msg.Payload().(*stormfront.TagsPayload)
		if !ok {
			return nil, false
		}
		var text []byte
		for _, tag := range tags.Tags {
			if tag.TargetWindow == f.config.Window {
				text = append(text, tag.Text...)
			}
		}
		return text, len(text) > 0
	}

	line, err := json.Marshal(record{Subject: subject, Data: json.RawMessage(msgData)})
	if err != nil {
		f.fail("Failed to encode transcript record", err)
		return nil, false
	}
	return append(line, '\n'), true
}

func (f *Output) flushLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.shutdown:
			return
		case <-ticker.C:
			f.flush()
		}
	}
}

// flush writes buffered messages to file. fileMu is held while the buffer is
// taken so concurrent flushes write batches in the order they were buffered.
func (f *Output) flush() {
	f.fileMu.Lock()
	defer f.fileMu.Unlock()

	f.bufferMu.Lock()
	if len(f.buffer) == 0 {
		f.bufferMu.Unlock()
		return
	}
	messages := f.buffer
	f.buffer = make([][]byte, 0, f.config.BufferSize)
	f.bufferMu.Unlock()

	if f.writer == nil {
		atomic.AddInt64(&f.errors, int64(len(messages)))
		f.logger.Error("File closed during flush", "messages_lost", len(messages))
		return
	}

	for _, msg := range messages {
		n, err := f.writer.Write(msg)
		if err != nil {
			f.fail("Failed to write message to file", err)
			continue
		}
		atomic.AddInt64(&f.messagesWritten, 1)
		atomic.AddInt64(&f.bytesWritten, int64(n))
	}
	if err := f.writer.Flush(); err != nil {
		f.fail("Failed to flush output file", err)
	}
}

func (f *Output) fail(msg string, err error) {
	atomic.AddInt64(&f.errors, 1)
	f.logger.Warn(msg, "path", f.path, "error", err)
}

// Meta returns component metadata
func (f *Output) Meta() component.Metadata {
	return component.Metadata{
		Name:        f.name,
		Type:        "output",
		Description: "Transcript file writer",
		Version:     "0.1.0",
	}
}

// InputPorts returns configured input port definitions
func (f *Output) InputPorts() []component.Port {
	ports := make([]component.Port, 0, len(f.config.Ports.Inputs))
	for _, def := range f.config.Ports.Inputs {
		ports = append(ports, component.BuildPortFromDefinition(def, component.DirectionInput))
	}
	return ports
}

// OutputPorts returns the file port. Two outputs may not share a file.
func (f *Output) OutputPorts() []component.Port {
	return []component.Port{{
		Name:      "file",
		Direction: component.DirectionOutput,
		Config:    component.FilePort{Path: f.path},
	}}
}

// ConfigSchema returns the configuration schema
func (f *Output) ConfigSchema() component.ConfigSchema {
	return fileSchema
}

// Health returns the current health status
func (f *Output) Health() component.HealthStatus {
	f.mu.RLock()
	running, start := f.running, f.startTime
	f.mu.RUnlock()

	f.fileMu.Lock()
	open := f.file != nil
	f.fileMu.Unlock()

	var uptime time.Duration
	if running {
		uptime = time.Since(start)
	}
	return component.HealthStatus{
		Healthy:    running && open,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&f.errors)),
		Uptime:     uptime,
	}
}

// DataFlow returns current data flow metrics
func (f *Output) DataFlow() component.FlowMetrics {
	f.mu.RLock()
	defer f.mu.RUnlock()

	written := atomic.LoadInt64(&f.messagesWritten)
	errorCount := atomic.LoadInt64(&f.errors)

	var flow component.FlowMetrics
	flow.LastActivity = f.lastActivity
	if total := written + errorCount; total > 0 {
		flow.ErrorRate = float64(errorCount) / float64(total)
	}
	if f.running {
		if secs := time.Since(f.startTime).Seconds(); secs > 0 {
			flow.MessagesPerSecond = float64(written) / secs
			flow.BytesPerSecond = float64(atomic.LoadInt64(&f.bytesWritten)) / secs
		}
	}
	return flow
}

// Register registers the file output component with the given registry
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "file",
		Factory:     NewOutput,
		Schema:      fileSchema,
		Type:        "output",
		Protocol:    "file",
		Domain:      "storage",
		Description: "Writes bus messages or rendered game text to a transcript file",
		Version:     "0.1.0",
	})
}
