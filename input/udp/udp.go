package udp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/outlander/component"
	"github.com/c360/outlander/errors"
	"github.com/c360/outlander/message"
	"github.com/c360/outlander/processor/stormfront"
)

// Port names
const (
	PortSocket = "udp_socket"
	PortNodes  = "nodes"
)

// Config holds configuration for the UDP node feed
type Config struct {
	Ports *component.PortConfig `json:"ports" schema:"type:ports,description:Port configuration,category:basic"`
	// QueueSize bounds datagrams waiting to be published; the oldest is dropped when full
	QueueSize int `json:"queue_size,omitempty" schema:"type:int,description:Datagrams queued before the oldest is dropped,default:1024,min:1,category:advanced"`
	// MaxDatagram is the read buffer size; longer datagrams are truncated and rejected
	MaxDatagram int `json:"max_datagram,omitempty" schema:"type:int,description:Largest datagram in bytes,default:65507,min:512,max:65535,category:advanced"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.QueueSize < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "queue_size cannot be negative")
	}
	if c.MaxDatagram < 0 || c.MaxDatagram > 65535 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "max_datagram out of range")
	}
	if c.Ports == nil {
		return nil
	}

	if def, ok := component.FindPort(c.Ports.Inputs, PortSocket); ok {
		if _, _, err := parseAddress(def.Subject); err != nil {
			return errors.WrapInvalid(err, "Config", "Validate", "udp socket address")
		}
	}
	for _, output := range c.Ports.Outputs {
		if (output.Type == "" || output.Type == "nats") && output.Subject == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"NATS output subject validation")
		}
	}
	return nil
}

// DefaultConfig listens on the loopback interface, where the protocol parser
// runs alongside the client.
func DefaultConfig() Config {
	return Config{
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        PortSocket,
					Type:        "network",
					Subject:     "udp://127.0.0.1:7770",
					Required:    true,
					Description: "UDP socket receiving JSON node batches",
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        PortNodes,
					Type:        "nats",
					Subject:     "outlander.nodes",
					Interface:   stormfront.NodesType.String(),
					Required:    true,
					Description: "Node batches for the stream processor",
				},
			},
		},
		QueueSize:   1024,
		MaxDatagram: 65507,
	}
}

var udpSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// parseAddress splits "udp://host:port". Port 0 picks a free port.
func parseAddress(raw string) (string, int, error) {
	hostPort, ok := strings.CutPrefix(raw, "udp://")
	if !ok {
		return "", 0, fmt.Errorf("address %q must start with udp://", raw)
	}
	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		return "", 0, fmt.Errorf("invalid UDP address %q: %w", raw, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port number: %s", portStr)
	}
	return host, port, nil
}

type publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Input receives node batches from the protocol parser as JSON datagrams
// ({"nodes": [...]}) and publishes them as node batch messages.
type Input struct {
	name    string
	config  Config
	bind    string
	port    int
	subject string
	bus     publisher
	logger  *slog.Logger
	retry   errors.RetryConfig

	conn  *net.UDPConn
	queue chan []byte

	// Lifecycle management
	running     atomic.Bool
	startTime   time.Time
	mu          sync.RWMutex
	lifecycleMu sync.Mutex
	wg          sync.WaitGroup

	// Metrics
	datagrams    atomic.Int64
	bytes        atomic.Int64
	published    atomic.Int64
	dropped      atomic.Int64
	errors       atomic.Int64
	lastError    atomic.Value // string
	lastActivity atomic.Value // time.Time

	metrics *Metrics
}

// Ensure Input implements all required interfaces
var _ component.Discoverable = (*Input)(nil)
var _ component.LifecycleComponent = (*Input)(nil)

// CreateInput creates a UDP node feed from configuration
func CreateInput(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	cfg := DefaultConfig()
	if len(rawConfig) > 0 {
		if err := component.SafeUnmarshal(rawConfig, &cfg); err != nil {
			return nil, errors.Wrap(err, "udp-input-factory", "create", "secure config parsing")
		}
	}
	if cfg.Ports == nil {
		cfg.Ports = DefaultConfig().Ports
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.MaxDatagram == 0 {
		cfg.MaxDatagram = DefaultConfig().MaxDatagram
	}

	socket, ok := component.FindPort(cfg.Ports.Inputs, PortSocket)
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "udp-input-factory", "create",
			"udp_socket input port required")
	}
	bind, port, err := parseAddress(socket.Subject)
	if err != nil {
		return nil, errors.WrapInvalid(err, "udp-input-factory", "create", "udp socket address")
	}

	subjects := component.Subjects(cfg.Ports.Outputs)
	if len(subjects) == 0 {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "udp-input-factory", "create",
			"NATS output subject required")
	}

	name := "udp-input"
	logger := deps.GetLoggerWithComponent(name)

	metrics, err := newMetrics(deps.MetricsRegistry)
	if err != nil {
		logger.Error("Failed to initialize UDP input metrics", "error", err)
		metrics = nil
	}

	u := &Input{
		name:    name,
		config:  cfg,
		bind:    bind,
		port:    port,
		subject: subjects[0],
		logger:  logger.With("port", port),
		retry:   errors.DefaultRetryConfig(),
		metrics: metrics,
	}
	if deps.NATSClient != nil {
		u.bus = deps.NATSClient
	}
	u.lastActivity.Store(time.Time{})
	u.lastError.Store("")
	return u, nil
}

// Addr returns the bound socket address, or nil before Start.
func (u *Input) Addr() net.Addr {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.conn == nil {
		return nil
	}
	return u.conn.LocalAddr()
}

// Initialize validates the runtime configuration
func (u *Input) Initialize() error {
	if u.subject == "" {
		return errors.WrapInvalid(fmt.Errorf("empty subject"), "udp-input", "Initialize", "subject validation")
	}
	return nil
}

// Start binds the socket and begins reading and publishing
func (u *Input) Start(ctx context.Context) error {
	u.lifecycleMu.Lock()
	defer u.lifecycleMu.Unlock()

	if u.running.Load() {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "udp-input", "Start", "check running state")
	}
	if u.bus == nil {
		return errors.WrapFatal(errors.ErrMissingConfig, "udp-input", "Start", "NATS client required")
	}

	var conn *net.UDPConn
	err := u.retry.Retry(ctx, func(context.Context) error {
		var err error
		conn, err = u.bindSocket()
		return err
	})
	if err != nil {
		return errors.WrapTransient(err, "udp-input", "Start", "socket binding")
	}

	u.mu.Lock()
	u.conn = conn
	u.queue = make(chan []byte, u.config.QueueSize)
	u.startTime = time.Now()
	u.mu.Unlock()
	u.running.Store(true)

	u.wg.Add(2)
	go u.readLoop(conn, u.queue)
	go u.publishLoop(ctx, u.queue)

	u.logger.Info("UDP input started",
		"address", conn.LocalAddr().String(),
		"subject", u.subject)
	return nil
}

func (u *Input) bindSocket() (*net.UDPConn, error) {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(u.bind, strconv.Itoa(u.port)))
	if err != nil {
		return nil, fmt.Errorf("resolve UDP address %s:%d: %w", u.bind, u.port, err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on UDP port %d: %w", u.port, err)
	}

	const socketBufferSize = 2 * 1024 * 1024
	if err := conn.SetReadBuffer(socketBufferSize); err != nil {
		u.logger.Warn("Could not set UDP buffer size",
			"buffer_size", socketBufferSize,
			"error", err)
	}
	return conn, nil
}

// Stop closes the socket and waits for queued batches to be published
func (u *Input) Stop(timeout time.Duration) error {
	u.lifecycleMu.Lock()
	defer u.lifecycleMu.Unlock()

	if !u.running.Swap(false) {
		return nil
	}

	u.mu.Lock()
	if u.conn != nil {
		_ = u.conn.Close()
	}
	u.mu.Unlock()

	done := make(chan struct{})
	go func() {
		u.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		return errors.WrapTransient(fmt.Errorf("stop timeout after %v", timeout),
			"udp-input", "Stop", "graceful shutdown")
	}

	u.mu.Lock()
	u.conn = nil
	u.mu.Unlock()

	u.logger.Info("UDP input stopped",
		"datagrams", u.datagrams.Load(),
		"published", u.published.Load(),
		"dropped", u.dropped.Load())
	return nil
}

// readLoop reads datagrams until the socket is closed. It owns the queue and
// closes it on exit.
func (u *Input) readLoop(conn *net.UDPConn, queue chan []byte) {
	defer u.wg.Done()
	defer close(queue)

	buf := make([]byte, u.config.MaxDatagram+1)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if !u.running.Load() {
				return
			}
			u.fail("socket", "UDP read failed", err)
			if !errors.IsTransient(err) {
				return
			}
			continue
		}

		u.datagrams.Add(1)
		u.bytes.Add(int64(n))
		u.lastActivity.Store(time.Now())
		u.metrics.recordDatagram(n)

		if n > u.config.MaxDatagram {
			u.fail("oversize", "Datagram exceeds max_datagram", fmt.Errorf("%d bytes", n))
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		u.enqueue(queue, data)
	}
}

// enqueue adds data, dropping the oldest queued datagram when full.
func (u *Input) enqueue(queue chan []byte, data []byte) {
	for {
		select {
		case queue <- data:
			u.metrics.setQueueDepth(len(queue))
			return
		default:
		}
		select {
		case <-queue:
			u.dropped.Add(1)
			u.metrics.recordDropped()
		default:
		}
	}
}

func (u *Input) publishLoop(ctx context.Context, queue <-chan []byte) {
	defer u.wg.Done()
	for data := range queue {
		u.metrics.setQueueDepth(len(queue))
		u.handleDatagram(ctx, data)
	}
}

// handleDatagram decodes one node batch and publishes it
func (u *Input) handleDatagram(ctx context.Context, data []byte) {
	var batch stormfront.NodesPayload
	if err := json.Unmarshal(data, &batch); err != nil {
		u.fail("decode", "Datagram is not a node batch", errors.WrapInvalid(err,
			"udp-input", "handleDatagram", "decode node batch"))
		return
	}
	if err := batch.Validate(); err != nil {
		u.fail("validation", "Node batch validation failed", err)
		return
	}

	msg := message.NewBaseMessage(batch.Schema(), &batch, u.name)
	out, err := json.Marshal(msg)
	if err != nil {
		u.fail("marshal", "Failed to marshal node batch", err)
		return
	}

	start := time.Now()
	err = u.retry.Retry(ctx, func(ctx context.Context) error {
		return u.bus.Publish(ctx, u.subject, out)
	})
	if err != nil {
		u.fail("publish", "Failed to publish node batch", errors.WrapTransient(err,
			"udp-input", "handleDatagram", "publish to "+u.subject))
		return
	}
	u.published.Add(1)
	u.metrics.recordPublished(len(batch.Nodes), time.Since(start))
}

func (u *Input) fail(errorType, msg string, err error) {
	u.errors.Add(1)
	u.lastError.Store(err.Error())
	u.metrics.recordError(errorType)
	u.logger.Warn(msg, "error_type", errorType, "error", err)
}

// Meta returns the component metadata
func (u *Input) Meta() component.Metadata {
	return component.Metadata{
		Name:        u.name,
		Type:        "input",
		Description: fmt.Sprintf("UDP node feed on %s:%d publishing to %s", u.bind, u.port, u.subject),
		Version:     "0.1.0",
	}
}

// InputPorts returns the UDP socket
func (u *Input) InputPorts() []component.Port {
	def, _ := component.FindPort(u.config.Ports.Inputs, PortSocket)
	return []component.Port{
		{
			Name:        PortSocket,
			Direction:   component.DirectionInput,
			Required:    true,
			Description: def.Description,
			Config: component.NetworkPort{
				Protocol: "udp",
				Host:     u.bind,
				Port:     u.port,
			},
		},
	}
}

// OutputPorts returns the node batch subject
func (u *Input) OutputPorts() []component.Port {
	ports := make([]component.Port, 0, len(u.config.Ports.Outputs))
	for _, def := range u.config.Ports.Outputs {
		ports = append(ports, component.BuildPortFromDefinition(def, component.DirectionOutput))
	}
	return ports
}

// ConfigSchema returns the configuration schema
func (u *Input) ConfigSchema() component.ConfigSchema {
	return udpSchema
}

// Health returns the current health status
func (u *Input) Health() component.HealthStatus {
	u.mu.RLock()
	connected := u.conn != nil
	startTime := u.startTime
	u.mu.RUnlock()

	running := u.running.Load()
	var uptime time.Duration
	if running {
		uptime = time.Since(startTime)
	}
	lastError, _ := u.lastError.Load().(string)

	return component.HealthStatus{
		Healthy:    running && connected,
		LastCheck:  time.Now(),
		ErrorCount: int(u.errors.Load()),
		LastError:  lastError,
		Uptime:     uptime,
	}
}

// DataFlow returns the current data flow metrics
func (u *Input) DataFlow() component.FlowMetrics {
	u.mu.RLock()
	startTime := u.startTime
	u.mu.RUnlock()

	datagrams := u.datagrams.Load()
	lastActivity, _ := u.lastActivity.Load().(time.Time)

	var flow component.FlowMetrics
	flow.LastActivity = lastActivity
	if datagrams > 0 {
		flow.ErrorRate = float64(u.errors.Load()) / float64(datagrams)
	}
	if u.running.Load() {
		if secs := time.Since(startTime).Seconds(); secs > 0 {
			flow.MessagesPerSecond = float64(datagrams) / secs
			flow.BytesPerSecond = float64(u.bytes.Load()) / secs
		}
	}
	return flow
}

// Register registers the UDP node feed with the given registry
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "udp",
		Factory:     CreateInput,
		Schema:      udpSchema,
		Type:        "input",
		Protocol:    "udp",
		Domain:      "network",
		Description: "Receives node batches from the protocol parser over UDP",
		Version:     "0.1.0",
	})
}
