// Package stormfront wraps the stream tag processor as a NATS component: node
// batches in, text tags, settings, game events and the script stream out, with
// every setting mirrored into a JetStream key-value bucket.
package stormfront

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/outlander/component"
	"github.com/c360/outlander/errors"
	"github.com/c360/outlander/experience"
	"github.com/c360/outlander/message"
	"github.com/c360/outlander/natsclient"
	sf "github.com/c360/outlander/stormfront"
)

// Port names
const (
	PortNodes    = "nodes"
	PortTags     = "tags"
	PortSettings = "settings"
	PortEvents   = "events"
	PortScript   = "script"
	PortRaw      = "raw"
	PortState    = "state"
)

// Config holds configuration for the stream tag processor
type Config struct {
	Ports     *component.PortConfig `json:"ports"      schema:"type:ports,description:Port configuration,category:basic"`
	KVHistory int                   `json:"kv_history" schema:"type:int,description:Revisions kept per state key,min:1,max:64,default:1,category:advanced"`
}

// maxKVHistory is the most revisions JetStream keeps per key.
const maxKVHistory = 64

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.KVHistory < 1 || c.KVHistory > maxKVHistory {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("kv_history must be between 1 and %d, got %d", maxKVHistory, c.KVHistory))
	}
	return nil
}

// DefaultConfig returns the default configuration for the stream tag processor
func DefaultConfig() Config {
	inputDefs := []component.PortDefinition{
		{
			Name:        PortNodes,
			Type:        "nats",
			Subject:     "outlander.nodes",
			Interface:   NodesType.String(),
			Required:    true,
			Description: "Parsed protocol node batches",
		},
	}

	outputDefs := []component.PortDefinition{
		{
			Name:        PortTags,
			Type:        "nats",
			Subject:     "outlander.tags",
			Interface:   TagsType.String(),
			Required:    true,
			Description: "Text tags for the renderer",
		},
		{
			Name:        PortSettings,
			Type:        "nats",
			Subject:     "outlander.settings",
			Interface:   SettingType.String(),
			Description: "Game setting updates",
		},
		{
			Name:        PortEvents,
			Type:        "nats",
			Subject:     "outlander.events",
			Description: "Game events, published on <subject>.<kind>",
		},
		{
			Name:        PortScript,
			Type:        "nats",
			Subject:     "outlander.script",
			Interface:   ScriptType.String(),
			Description: "Script stream",
		},
		{
			Name:        PortState,
			Type:        "kv-write",
			Subject:     "OUTLANDER_STATE",
			Interface:   SettingType.String(),
			Description: "Game state bucket",
		},
	}

	return Config{
		Ports: &component.PortConfig{
			Inputs:  inputDefs,
			Outputs: outputDefs,
		},
		KVHistory: 1,
	}
}

var stormfrontSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// messageBus is the part of natsclient.Client the processor uses.
type messageBus interface {
	Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) (natsclient.Subscription, error)
	Publish(ctx context.Context, subject string, data []byte) error
}

// stateStore is the part of natsclient.KVStore the processor uses.
type stateStore interface {
	Put(ctx context.Context, key string, value []byte) (uint64, error)
}

type outgoing struct {
	subject string
	payload message.Payload
}

// Processor runs one stream tag processor over a NATS node batch subject.
type Processor struct {
	name       string
	config     Config
	inputs     []string
	natsClient *natsclient.Client
	bus        messageBus
	subs       []natsclient.Subscription
	store      stateStore
	logger     *slog.Logger
	retry      errors.RetryConfig
	now        func() time.Time

	// Output subjects; empty disables the output
	tagsSubject     string
	settingsSubject string
	eventsPrefix    string
	scriptSubject   string
	rawSubject      string
	stateBucket     string

	// Stream state, guarded by streamMu
	streamMu  sync.Mutex
	streamer  *sf.Streamer
	pending   []outgoing
	stateKeys []SettingPayload
	roomTitle string
	sequence  uint64

	// Lifecycle management
	running     bool
	startTime   time.Time
	mu          sync.RWMutex
	lifecycleMu sync.Mutex
	wg          sync.WaitGroup

	// Metrics (atomic counters for DataFlow)
	batchesProcessed int64
	bytesReceived    int64
	errors           int64
	lastActivity     time.Time

	metrics *streamMetrics
}

// NewProcessor creates a stream tag processor from configuration
func NewProcessor(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	config := DefaultConfig()
	if err := component.SafeUnmarshal(rawConfig, &config); err != nil {
		return nil, errors.WrapInvalid(err, "StormfrontProcessor", "NewProcessor", "config unmarshal")
	}
	if config.Ports == nil {
		config.Ports = DefaultConfig().Ports
	}

	inputs := component.Subjects(config.Ports.Inputs)
	if len(inputs) == 0 {
		return nil, errors.WrapInvalid(
			errors.ErrInvalidConfig, "StormfrontProcessor", "NewProcessor",
			"no input subjects configured")
	}

	name := "stormfront-processor"
	logger := deps.GetLoggerWithComponent(name)

	metrics, err := newStreamMetrics(deps.MetricsRegistry)
	if err != nil {
		logger.Error("Failed to initialize stormfront metrics", "error", err)
		metrics = nil
	}

	p := &Processor{
		name:       name,
		config:     config,
		inputs:     inputs,
		natsClient: deps.NATSClient,
		logger:     logger,
		retry:      errors.DefaultRetryConfig(),
		now:        time.Now,
		metrics:    metrics,
	}
	if deps.NATSClient != nil {
		p.bus = deps.NATSClient
	}

	outputs := config.Ports.Outputs
	p.tagsSubject = natsSubject(outputs, PortTags)
	p.settingsSubject = natsSubject(outputs, PortSettings)
	p.eventsPrefix = natsSubject(outputs, PortEvents)
	p.scriptSubject = natsSubject(outputs, PortScript)
	p.rawSubject = natsSubject(outputs, PortRaw)
	if def, ok := component.FindPort(outputs, PortState); ok && def.Type != "nats" && def.Type != "" {
		p.stateBucket = def.Subject
	}

	p.streamer = sf.NewStreamer(p.sinks(),
		sf.WithClock(func() time.Time { return p.now() }),
		sf.WithLogger(logger))

	return p, nil
}

func natsSubject(defs []component.PortDefinition, name string) string {
	def, ok := component.FindPort(defs, name)
	if !ok || (def.Type != "" && def.Type != "nats") {
		return ""
	}
	return def.Subject
}

// sinks buffers every emission; nothing is published while Stream runs.
func (p *Processor) sinks() sf.Sinks {
	event := func(kind string, payload message.Payload) {
		if p.eventsPrefix == "" {
			return
		}
		p.pending = append(p.pending, outgoing{subject: p.eventsPrefix + "." + kind, payload: payload})
		p.metrics.recordEvent(p.name, kind)
	}

	sinks := sf.Sinks{
		Setting: func(key, value string) {
			if key == "roomtitle" {
				p.roomTitle = value
			}
			p.metrics.recordSetting(p.name)
			if p.stateBucket != "" {
				p.stateKeys = append(p.stateKeys, SettingPayload{Key: key, Value: value})
			}
			if p.settingsSubject != "" {
				p.pending = append(p.pending, outgoing{
					subject: p.settingsSubject,
					payload: &SettingPayload{Key: key, Value: value},
				})
			}
		},
		Experience: func(exp experience.SkillExp) {
			event("experience", &ExperiencePayload{Skill: exp})
		},
		Roundtime: func(rt sf.Roundtime) {
			event("roundtime", &RoundtimePayload{Ends: rt.Time})
		},
		RoomChanged: func() {
			event("room", &RoomPayload{Title: p.roomTitle})
		},
		Vitals: func(v sf.Vitals) {
			event("vitals", &VitalsPayload{Name: v.Name, Value: v.Value})
		},
		Spell: func(spell string) {
			event("spell", &SpellPayload{Spell: spell})
		},
	}

	if p.rawSubject != "" {
		sinks.Node = func(n sf.Node) {
			p.pending = append(p.pending, outgoing{subject: p.rawSubject, payload: &RawPayload{Node: n}})
		}
	}

	return sinks
}

// Initialize prepares the processor (no-op)
func (p *Processor) Initialize() error {
	return nil
}

// Start opens the state bucket and subscribes to the input subjects
func (p *Processor) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "StormfrontProcessor", "Start", "check running state")
	}

	if p.bus == nil {
		return errors.WrapFatal(errors.ErrMissingConfig, "StormfrontProcessor", "Start", "NATS client required")
	}

	if p.store == nil && p.stateBucket != "" && p.natsClient != nil {
		bucket, err := p.natsClient.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
			Bucket:      p.stateBucket,
			Description: "Outlander game state",
			History:     uint8(p.config.KVHistory),
		})
		if err != nil {
			return errors.WrapTransient(err, "StormfrontProcessor", "Start", "open state bucket "+p.stateBucket)
		}
		p.store = p.natsClient.NewKVStore(bucket)
	}

	// Mark running before subscribing so the first delivered batch is accepted.
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
			p.logger.Error("Failed to subscribe to NATS subject",
				"subject", subject,
				"error", err)
			return errors.WrapTransient(err, "StormfrontProcessor", "Start", fmt.Sprintf("subscribe to %s", subject))
		}
		p.subs = append(p.subs, sub)
		p.logger.Debug("Subscribed to NATS subject", "subject", subject)
	}

	p.logger.Info("Stormfront processor started",
		"input_subjects", p.inputs,
		"tags_subject", p.tagsSubject,
		"state_bucket", p.stateBucket)

	return nil
}

// Stop unsubscribes and waits for the batch in flight, if any
func (p *Processor) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	if err := natsclient.UnsubscribeAll(p.subs); err != nil {
		p.logger.Warn("Failed to unsubscribe", "error", err)
	}
	p.subs = nil

	waitCh := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
	case <-time.After(timeout):
		return errors.WrapTransient(
			fmt.Errorf("shutdown timeout after %v", timeout),
			"StormfrontProcessor", "Stop", "graceful shutdown")
	}

	p.logger.Info("Stormfront processor stopped",
		"batches", atomic.LoadInt64(&p.batchesProcessed))
	return nil
}

// handleMessage decodes one node batch message and processes it
func (p *Processor) handleMessage(ctx context.Context, msgData []byte) {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.wg.Add(1)
	p.lastActivity = time.Now()
	p.mu.Unlock()
	defer p.wg.Done()

	atomic.AddInt64(&p.bytesReceived, int64(len(msgData)))

	var baseMsg message.BaseMessage
	if err := json.Unmarshal(msgData, &baseMsg); err != nil {
		p.fail("parse", "Failed to parse node batch message", err)
		return
	}

	batch, ok := baseMsg.Payload().(*NodesPayload)
	if !ok {
		p.fail("type", "Payload is not a node batch",
			fmt.Errorf("%w: %s", errors.ErrUnknownPayload, baseMsg.Type()))
		return
	}

	if err := batch.Validate(); err != nil {
		p.fail("validation", "Node batch validation failed", err)
		return
	}

	p.Process(ctx, batch.Nodes)
}

// Process streams one batch and publishes its output. Batches are processed
// one at a time, in call order.
func (p *Processor) Process(ctx context.Context, nodes []sf.Node) []sf.TextTag {
	p.streamMu.Lock()
	defer p.streamMu.Unlock()

	start := time.Now()
	tags := p.streamer.Stream(nodes)
	p.metrics.recordBatch(p.name, len(nodes), len(tags), time.Since(start))
	atomic.AddInt64(&p.batchesProcessed, 1)

	pending, stateKeys := p.pending, p.stateKeys
	p.pending, p.stateKeys = nil, nil

	for _, out := range pending {
		p.publish(ctx, out.subject, out.payload)
	}

	for _, setting := range stateKeys {
		p.storeSetting(ctx, setting)
	}

	if len(tags) > 0 {
		if p.tagsSubject != "" {
			p.sequence++
			p.publish(ctx, p.tagsSubject, &TagsPayload{Sequence: p.sequence, Tags: tags})
		}
		if p.scriptSubject != "" {
			p.publish(ctx, p.scriptSubject, &ScriptPayload{Nodes: nodes, Text: renderText(tags)})
		}
	}

	p.logger.Debug("Processed node batch",
		"nodes", len(nodes),
		"tags", len(tags),
		"emissions", len(pending))

	return tags
}

func renderText(tags []sf.TextTag) string {
	var b strings.Builder
	for _, tag := range tags {
		b.WriteString(tag.Text)
	}
	return b.String()
}

func (p *Processor) publish(ctx context.Context, subject string, payload message.Payload) {
	msg := message.NewBaseMessage(payload.Schema(), payload, p.name, message.WithTime(p.now()))
	data, err := json.Marshal(msg)
	if err != nil {
		p.fail("marshal", "Failed to marshal message", err)
		return
	}
	if err := p.bus.Publish(ctx, subject, data); err != nil {
		p.fail("publish", "Failed to publish message", errors.WrapTransient(err,
			"StormfrontProcessor", "publish", "publish to "+subject))
	}
}

// storeSetting writes one setting into the state bucket, retrying transient failures.
func (p *Processor) storeSetting(ctx context.Context, setting SettingPayload) {
	if p.store == nil {
		return
	}
	key := natsclient.SanitizeKey(setting.Key)
	err := p.retry.Retry(ctx, func(ctx context.Context) error {
		_, err := p.store.Put(ctx, key, []byte(setting.Value))
		return err
	})
	if err != nil {
		p.fail("kv", "Failed to store setting", errors.Wrap(err, "StormfrontProcessor", "storeSetting", "put "+key))
	}
}

func (p *Processor) fail(errorType, msg string, err error) {
	atomic.AddInt64(&p.errors, 1)
	p.metrics.recordError(p.name, errorType)
	if errors.IsInvalid(err) {
		p.logger.Debug(msg, "error_type", errorType, "error", err)
		return
	}
	p.logger.Warn(msg, "error_type", errorType, "error", err)
}

// Reset drops the stream state, as after a reconnect to the game.
func (p *Processor) Reset() {
	p.streamMu.Lock()
	defer p.streamMu.Unlock()
	p.streamer.Reset()
	p.roomTitle = ""
}

// State returns a copy of the stream state.
func (p *Processor) State() sf.State {
	p.streamMu.Lock()
	defer p.streamMu.Unlock()
	return p.streamer.State()
}

// Discoverable interface implementation

// Meta returns metadata describing this processor component.
func (p *Processor) Meta() component.Metadata {
	return component.Metadata{
		Name:        p.name,
		Type:        "processor",
		Description: "StormFront stream tag processor",
		Version:     "0.1.0",
	}
}

// InputPorts returns the NATS input ports this processor subscribes to.
func (p *Processor) InputPorts() []component.Port {
	ports := make([]component.Port, 0, len(p.config.Ports.Inputs))
	for _, def := range p.config.Ports.Inputs {
		ports = append(ports, component.BuildPortFromDefinition(def, component.DirectionInput))
	}
	return ports
}

// OutputPorts returns the NATS subjects and the state bucket this processor writes.
func (p *Processor) OutputPorts() []component.Port {
	ports := make([]component.Port, 0, len(p.config.Ports.Outputs))
	for _, def := range p.config.Ports.Outputs {
		ports = append(ports, component.BuildPortFromDefinition(def, component.DirectionOutput))
	}
	return ports
}

// ConfigSchema returns the configuration schema for this processor.
func (p *Processor) ConfigSchema() component.ConfigSchema {
	return stormfrontSchema
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

	batches := atomic.LoadInt64(&p.batchesProcessed)
	errorCount := atomic.LoadInt64(&p.errors)

	var flow component.FlowMetrics
	flow.LastActivity = p.lastActivity
	if batches > 0 {
		flow.ErrorRate = float64(errorCount) / float64(batches)
	}
	if p.running {
		if secs := time.Since(p.startTime).Seconds(); secs > 0 {
			flow.MessagesPerSecond = float64(batches) / secs
			flow.BytesPerSecond = float64(atomic.LoadInt64(&p.bytesReceived)) / secs
		}
	}
	return flow
}

// Register registers the stream tag processor with the given registry
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "stormfront",
		Factory:     NewProcessor,
		Schema:      stormfrontSchema,
		Type:        "processor",
		Protocol:    "stormfront",
		Domain:      "game",
		Description: "Turns StormFront node batches into text tags, settings and game events",
		Version:     "0.1.0",
	})
}
