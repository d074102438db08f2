// Package websocket provides the WebSocket output component that feeds renderer clients
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/c360/outlander/component"
	"github.com/c360/outlander/errors"
	"github.com/c360/outlander/message"
	"github.com/c360/outlander/natsclient"
	"github.com/c360/outlander/processor/command"
)

// Envelope types
const (
	EnvelopeData    = "data"    // server to client: one bus message
	EnvelopeState   = "state"   // server to client: game state snapshot on connect
	EnvelopeCommand = "command" // client to server: one line the user typed
)

// PortState names the game state bucket read for connect snapshots.
const PortState = "state"

// stateReadTimeout bounds the snapshot read for one connecting client.
const stateReadTimeout = 5 * time.Second

// Config holds configuration for WebSocket output component
type Config struct {
	// Port configuration for inputs and outputs
	Ports *component.PortConfig `json:"ports"                   schema:"type:ports,description:Port configuration,category:basic"`
	// PingInterval is how often idle clients are pinged
	PingInterval string `json:"ping_interval,omitempty" schema:"type:string,description:Keepalive ping interval (e.g. 30s),default:30s,category:advanced"`
	// WriteTimeout bounds a single write to one client
	WriteTimeout string `json:"write_timeout,omitempty" schema:"type:string,description:Per client write timeout (e.g. 5s),default:5s,category:advanced"`
	// ReadLimit caps the size of frames clients may send
	ReadLimit int64 `json:"read_limit,omitempty"    schema:"type:int,description:Largest client frame in bytes,default:4096,min:64,category:advanced"`
	// CommandRate and CommandBurst limit command lines per client
	CommandRate  float64 `json:"command_rate,omitempty"  schema:"type:float,description:Command lines per second per client,default:10,category:advanced"`
	CommandBurst int     `json:"command_burst,omitempty" schema:"type:int,description:Command lines a client may send at once,default:20,min:1,category:advanced"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	for name, value := range map[string]string{"ping_interval": c.PingInterval, "write_timeout": c.WriteTimeout} {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				fmt.Sprintf("%s must be a positive duration", name))
		}
	}
	if c.ReadLimit < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "read_limit cannot be negative")
	}
	if c.CommandRate < 0 || c.CommandBurst < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "command limits cannot be negative")
	}
	return nil
}

// DefaultConfig returns the default configuration for WebSocket output
func DefaultConfig() Config {
	inputDefs := []component.PortDefinition{
		{Name: "tags", Type: "nats", Subject: "outlander.tags", Required: true, Description: "Tag batches"},
		{Name: "settings", Type: "nats", Subject: "outlander.settings", Description: "Setting updates"},
		{Name: "events", Type: "nats", Subject: "outlander.events.>", Description: "Game events"},
		{Name: "window", Type: "nats", Subject: "outlander.window", Description: "Window commands"},
		{Name: PortState, Type: "kv-read", Subject: "OUTLANDER_STATE", Description: "Game state sent to new clients"},
	}

	// The listen address is encoded as a URL in the Subject field
	outputDefs := []component.PortDefinition{
		{
			Name:        "websocket_server",
			Type:        "network",
			Subject:     "http://0.0.0.0:8081/ws",
			Description: "WebSocket server endpoint",
		},
		{
			Name:        "commands",
			Type:        "nats",
			Subject:     "outlander.commands",
			Interface:   command.CommandType.String(),
			Description: "Command lines typed in a renderer client",
		},
	}

	return Config{
		Ports: &component.PortConfig{
			Inputs:  inputDefs,
			Outputs: outputDefs,
		},
		PingInterval: "30s",
		WriteTimeout: "5s",
		ReadLimit:    4096,
		CommandRate:  10,
		CommandBurst: 20,
	}
}

// websocketSchema is generated from the Config struct tags
var websocketSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

type messageBus interface {
	Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) (natsclient.Subscription, error)
	Publish(ctx context.Context, subject string, data []byte) error
}

// stateReader is the part of natsclient.KVStore the snapshot uses.
type stateReader interface {
	Keys(ctx context.Context) ([]string, error)
	Get(ctx context.Context, key string) (*natsclient.KVEntry, error)
}

// Envelope is the frame exchanged with clients.
type Envelope struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Subject   string          `json:"subject,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Line      string          `json:"line,omitempty"`
}

// clientInfo holds information about a connected WebSocket client
type clientInfo struct {
	conn        *websocket.Conn
	connectedAt time.Time
	closed      atomic.Bool
	closeOnce   sync.Once
	writeMutex  sync.Mutex // gorilla/websocket allows one concurrent writer
	commands    *rate.Limiter
}

// Output is a WebSocket server that broadcasts bus messages to connected
// renderer clients and forwards the command lines they send back to the bus.
type Output struct {
	name           string
	config         Config
	host           string
	port           int
	path           string
	subjects       []string
	commandSubject string
	pingInterval   time.Duration
	writeTimeout   time.Duration
	bus            messageBus
	subs           []natsclient.Subscription
	logger         *slog.Logger

	// Game state bucket, opened on the first client connect
	natsClient  *natsclient.Client
	stateBucket string
	state       stateReader
	stateMu     sync.Mutex

	// WebSocket server
	server    *http.Server
	listener  net.Listener
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]*clientInfo
	clientsMu sync.RWMutex

	// Lifecycle management
	shutdown    chan struct{}
	running     bool
	startTime   time.Time
	mu          sync.RWMutex
	lifecycleMu sync.Mutex
	wg          sync.WaitGroup

	messageIDCounter atomic.Uint64

	// Metrics
	messagesSent      int64
	bytesSent         int64
	commandsForwarded int64
	errors            int64
	lastActivity      time.Time

	metrics *Metrics
}

// Ensure Output implements all required interfaces
var _ component.Discoverable = (*Output)(nil)
var _ component.LifecycleComponent = (*Output)(nil)

// parseEndpoint splits "http://host:port/path" into its parts. Port 0 picks a
// free port.
func parseEndpoint(raw string) (string, int, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, "", err
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return "", 0, "", fmt.Errorf("endpoint %q has no port", raw)
	}
	if port < 0 || port > 65535 {
		return "", 0, "", fmt.Errorf("port %d out of range", port)
	}
	path := u.Path
	if path == "" {
		path = "/ws"
	}
	return u.Hostname(), port, path, nil
}

// CreateOutput creates a WebSocket output component from configuration
func CreateOutput(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	cfg := DefaultConfig()
	if err := component.SafeUnmarshal(rawConfig, &cfg); err != nil {
		return nil, errors.WrapInvalid(err, "websocket-output-factory", "create", "parse config")
	}
	if cfg.Ports == nil {
		cfg.Ports = DefaultConfig().Ports
	}

	subjects := component.Subjects(cfg.Ports.Inputs)
	if len(subjects) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "websocket-output-factory", "create",
			"input subjects validation")
	}

	endpoint, ok := component.FindPort(cfg.Ports.Outputs, "websocket_server")
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "websocket-output-factory", "create",
			"websocket_server port lookup")
	}
	host, port, path, err := parseEndpoint(endpoint.Subject)
	if err != nil {
		return nil, errors.WrapInvalid(err, "websocket-output-factory", "create", "parse endpoint")
	}

	var commandSubject string
	if def, ok := component.FindPort(cfg.Ports.Outputs, "commands"); ok {
		commandSubject = def.Subject
	}

	var stateBucket string
	if def, ok := component.FindPort(cfg.Ports.Inputs, PortState); ok && (def.Type == "kv-read" || def.Type == "kvread") {
		stateBucket = def.Subject
	}

	pingInterval, writeTimeout := 30*time.Second, 5*time.Second
	if cfg.PingInterval != "" {
		pingInterval, _ = time.ParseDuration(cfg.PingInterval)
	}
	if cfg.WriteTimeout != "" {
		writeTimeout, _ = time.ParseDuration(cfg.WriteTimeout)
	}

	logger := deps.GetLoggerWithComponent("websocket-output")
	metrics, err := newMetrics(deps.MetricsRegistry)
	if err != nil {
		logger.Error("Failed to initialize websocket metrics", "error", err)
		metrics = nil
	}

	w := &Output{
		name:           "websocket-output",
		config:         cfg,
		host:           host,
		port:           port,
		path:           path,
		subjects:       subjects,
		commandSubject: commandSubject,
		stateBucket:    stateBucket,
		natsClient:     deps.NATSClient,
		pingInterval:   pingInterval,
		writeTimeout:   writeTimeout,
		logger:         logger,
		upgrader: websocket.Upgrader{
			// Renderers are local clients on arbitrary origins
			CheckOrigin:     func(_ *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		clients: make(map[*websocket.Conn]*clientInfo),
		metrics: metrics,
	}
	if deps.NATSClient != nil {
		w.bus = deps.NATSClient
	}
	return w, nil
}

// generateMessageID generates a unique message ID for correlation
func (w *Output) generateMessageID() string {
	return fmt.Sprintf("msg-%d-%d", time.Now().UnixMilli(), w.messageIDCounter.Add(1))
}

// Meta returns the component metadata
func (w *Output) Meta() component.Metadata {
	return component.Metadata{
		Name:        w.name,
		Type:        "output",
		Description: fmt.Sprintf("WebSocket server on :%d%s serving %v", w.port, w.path, w.subjects),
		Version:     "0.1.0",
	}
}

// InputPorts returns the input ports for this component
func (w *Output) InputPorts() []component.Port {
	ports := make([]component.Port, 0, len(w.config.Ports.Inputs))
	for _, def := range w.config.Ports.Inputs {
		ports = append(ports, component.BuildPortFromDefinition(def, component.DirectionInput))
	}
	return ports
}

// OutputPorts returns the server endpoint and, when configured, the command subject
func (w *Output) OutputPorts() []component.Port {
	host := w.host
	if host == "" {
		host = "0.0.0.0"
	}
	ports := []component.Port{{
		Name:        "websocket_server",
		Direction:   component.DirectionOutput,
		Description: fmt.Sprintf("WebSocket endpoint at ws://%s:%d%s", host, w.port, w.path),
		Config: component.NetworkPort{
			Protocol: "websocket",
			Host:     host,
			Port:     w.port,
		},
	}}
	if w.commandSubject != "" {
		ports = append(ports, component.Port{
			Name:        "commands",
			Direction:   component.DirectionOutput,
			Description: "Command lines typed in a renderer client",
			Config:      component.NATSPort{Subject: w.commandSubject},
		})
	}
	return ports
}

// ConfigSchema returns the configuration schema for this component
func (w *Output) ConfigSchema() component.ConfigSchema {
	return websocketSchema
}

// Health returns the current health status of the component
func (w *Output) Health() component.HealthStatus {
	w.mu.RLock()
	running := w.running
	serverRunning := w.server != nil
	start := w.startTime
	w.mu.RUnlock()

	var uptime time.Duration
	if running {
		uptime = time.Since(start)
	}
	return component.HealthStatus{
		Healthy:    running && serverRunning,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&w.errors)),
		Uptime:     uptime,
	}
}

// DataFlow returns current data flow metrics
func (w *Output) DataFlow() component.FlowMetrics {
	w.mu.RLock()
	defer w.mu.RUnlock()

	sent := atomic.LoadInt64(&w.messagesSent)
	errorCount := atomic.LoadInt64(&w.errors)

	flow := component.FlowMetrics{LastActivity: w.lastActivity}
	if total := sent + errorCount; total > 0 {
		flow.ErrorRate = float64(errorCount) / float64(total)
	}
	if w.running {
		if secs := time.Since(w.startTime).Seconds(); secs > 0 {
			flow.MessagesPerSecond = float64(sent) / secs
			flow.BytesPerSecond = float64(atomic.LoadInt64(&w.bytesSent)) / secs
		}
	}
	return flow
}

// Addr returns the address the server listens on, or "" when stopped.
func (w *Output) Addr() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.listener == nil {
		return ""
	}
	return w.listener.Addr().String()
}

// ClientCount returns the number of connected clients
func (w *Output) ClientCount() int {
	w.clientsMu.RLock()
	defer w.clientsMu.RUnlock()
	return len(w.clients)
}

// Initialize validates the configuration but does not start the server
func (w *Output) Initialize() error {
	if w.path == "" || w.path[0] != '/' {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Output", "Initialize", "WebSocket path must start with /")
	}
	if len(w.subjects) == 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Output", "Initialize", "NATS subjects cannot be empty")
	}
	return nil
}

// Start binds the listener, subscribes to the input subjects and serves clients
func (w *Output) Start(ctx context.Context) error {
	w.lifecycleMu.Lock()
	defer w.lifecycleMu.Unlock()

	if ctx == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Output", "Start", "context cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "Output", "Start", "context already cancelled or timed out")
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Output", "Start", "check running state")
	}
	if w.bus == nil {
		w.mu.Unlock()
		return errors.WrapFatal(errors.ErrMissingConfig, "Output", "Start", "NATS client required")
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(w.host, strconv.Itoa(w.port)))
	if err != nil {
		w.mu.Unlock()
		return errors.WrapFatal(err, "Output", "Start", "listen")
	}

	mux := http.NewServeMux()
	mux.HandleFunc(w.path, w.handleWebSocket)
	w.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	w.listener = listener
	w.shutdown = make(chan struct{})
	w.running = true
	w.startTime = time.Now()
	w.mu.Unlock()

	for _, subject := range w.subjects {
		sub, err := w.bus.Subscribe(ctx, subject, w.handlerFor(subject))
		if err != nil {
			_ = natsclient.UnsubscribeAll(w.subs)
			w.subs = nil
			w.mu.Lock()
			w.running = false
			close(w.shutdown)
			server := w.server
			w.server, w.listener = nil, nil
			w.mu.Unlock()
			_ = server.Close()
			return errors.WrapTransient(err, "Output", "Start", fmt.Sprintf("subscribe to %s", subject))
		}
		w.subs = append(w.subs, sub)
	}

	w.wg.Add(2)
	go w.runServer(w.server, listener)
	go w.maintainClients()

	w.logger.Info("WebSocket output started",
		"address", listener.Addr().String(),
		"path", w.path,
		"subjects", w.subjects)

	return nil
}

// Stop shuts the server down and closes every client connection
func (w *Output) Stop(timeout time.Duration) error {
	w.lifecycleMu.Lock()
	defer w.lifecycleMu.Unlock()

	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.shutdown)
	server := w.server
	w.mu.Unlock()

	if err := natsclient.UnsubscribeAll(w.subs); err != nil {
		w.logger.Warn("Failed to unsubscribe", "error", err)
	}
	w.subs = nil

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		w.logger.Warn("HTTP server shutdown error", "error", err)
	}

	// Hijacked connections are not closed by Shutdown.
	w.closeAllClients()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	var stopErr error
	select {
	case <-done:
	case <-time.After(timeout):
		stopErr = errors.WrapTransient(fmt.Errorf("shutdown timeout after %v", timeout), "Output", "Stop", "wait for goroutines")
	}

	w.mu.Lock()
	w.server, w.listener = nil, nil
	w.mu.Unlock()

	return stopErr
}

func (w *Output) closeAllClients() {
	w.clientsMu.RLock()
	clients := make([]*clientInfo, 0, len(w.clients))
	for _, info := range w.clients {
		clients = append(clients, info)
	}
	w.clientsMu.RUnlock()

	for _, info := range clients {
		w.removeClient(info, "shutdown")
	}
}

func (w *Output) runServer(server *http.Server, listener net.Listener) {
	defer w.wg.Done()

	if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
		w.logger.Error("HTTP server failed", "error", err)
		atomic.AddInt64(&w.errors, 1)
		w.metrics.recordError("server")
	}
}

func (w *Output) handlerFor(subject string) func(context.Context, []byte) {
	return func(ctx context.Context, data []byte) {
		w.mu.Lock()
		if !w.running {
			w.mu.Unlock()
			return
		}
		w.lastActivity = time.Now()
		w.mu.Unlock()

		w.metrics.recordReceived(subject)
		w.broadcast(ctx, subject, data)
	}
}

// envelopeFor wraps one bus message. Data that is not JSON is sent as a string.
func (w *Output) envelopeFor(subject string, data []byte) ([]byte, error) {
	payload := json.RawMessage(data)
	if !json.Valid(data) {
		quoted, err := json.Marshal(string(data))
		if err != nil {
			return nil, err
		}
		payload = quoted
	}
	return json.Marshal(Envelope{
		Type:      EnvelopeData,
		ID:        w.generateMessageID(),
		Timestamp: time.Now().UnixMilli(),
		Subject:   subject,
		Data:      payload,
	})
}

// broadcast writes one message to every connected client concurrently
func (w *Output) broadcast(ctx context.Context, subject string, data []byte) {
	start := time.Now()

	frame, err := w.envelopeFor(subject, data)
	if err != nil {
		atomic.AddInt64(&w.errors, 1)
		w.metrics.recordError("envelope_marshal")
		return
	}

	w.clientsMu.RLock()
	clients := make([]*clientInfo, 0, len(w.clients))
	for _, info := range w.clients {
		if !info.closed.Load() {
			clients = append(clients, info)
		}
	}
	w.clientsMu.RUnlock()

	select {
	case <-ctx.Done():
		return
	default:
	}

	var wg sync.WaitGroup
	for _, info := range clients {
		wg.Add(1)
		go func(info *clientInfo) {
			defer wg.Done()
			if err := w.sendToClient(info, frame); err != nil {
				atomic.AddInt64(&w.errors, 1)
				w.metrics.recordError("client_send")
				w.removeClient(info, "write_error")
				return
			}
			atomic.AddInt64(&w.messagesSent, 1)
			atomic.AddInt64(&w.bytesSent, int64(len(frame)))
			w.metrics.recordSent(subject, len(frame))
		}(info)
	}
	wg.Wait()

	w.metrics.recordBroadcast(subject, time.Since(start))
}

// sendToClient writes one frame with a deadline
func (w *Output) sendToClient(info *clientInfo, data []byte) error {
	info.writeMutex.Lock()
	defer info.writeMutex.Unlock()
	return w.writeFrame(info, data)
}

// writeFrame writes one frame; the caller holds info.writeMutex.
func (w *Output) writeFrame(info *clientInfo, data []byte) error {
	_ = info.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	return info.conn.WriteMessage(websocket.TextMessage, data)
}

// handleWebSocket upgrades a request and starts reading client frames
func (w *Output) handleWebSocket(wr http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(wr, r, nil)
	if err != nil {
		atomic.AddInt64(&w.errors, 1)
		w.metrics.recordError("connection_upgrade")
		return
	}

	info := &clientInfo{conn: conn, connectedAt: time.Now(), commands: w.newCommandLimiter()}

	w.mu.RLock()
	if !w.running {
		w.mu.RUnlock()
		_ = conn.Close()
		return
	}
	w.wg.Add(1)
	w.mu.RUnlock()

	// Broadcasts to this client wait for the snapshot, so every data frame
	// is newer than the state it follows.
	info.writeMutex.Lock()
	w.clientsMu.Lock()
	w.clients[conn] = info
	count := len(w.clients)
	w.clientsMu.Unlock()

	w.metrics.recordConnect(count)
	w.logger.Debug("Client connected", "remote", r.RemoteAddr, "clients", count)

	ctx, cancel := context.WithTimeout(r.Context(), stateReadTimeout)
	err = w.sendState(ctx, info)
	cancel()
	info.writeMutex.Unlock()
	if err != nil {
		atomic.AddInt64(&w.errors, 1)
		w.metrics.recordError("client_send")
		w.removeClient(info, "write_error")
		w.wg.Done()
		return
	}

	go w.handleClient(info)
}

// stateStore opens the state bucket on first use. The bucket is created by
// the stream processor, so a miss is retried on the next connect.
func (w *Output) stateStore(ctx context.Context) stateReader {
	w.stateMu.Lock()
	defer w.stateMu.Unlock()

	if w.state != nil || w.stateBucket == "" || w.natsClient == nil {
		return w.state
	}
	bucket, err := w.natsClient.GetKeyValueBucket(ctx, w.stateBucket)
	if err != nil {
		w.logger.Debug("State bucket not available", "bucket", w.stateBucket, "error", err)
		return nil
	}
	w.state = w.natsClient.NewKVStore(bucket)
	return w.state
}

// readState returns every setting in the state bucket. Keys deleted while
// reading are skipped.
func (w *Output) readState(ctx context.Context, store stateReader) (map[string]string, error) {
	keys, err := store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	state := make(map[string]string, len(keys))
	for _, key := range keys {
		entry, err := store.Get(ctx, key)
		if err != nil {
			if natsclient.IsKVNotFoundError(err) {
				continue
			}
			return nil, err
		}
		state[key] = string(entry.Value)
	}
	return state, nil
}

// sendState writes the state snapshot to a new client; the caller holds
// info.writeMutex. Only a failed write is returned: a client that gets no
// snapshot still receives live updates.
func (w *Output) sendState(ctx context.Context, info *clientInfo) error {
	store := w.stateStore(ctx)
	if store == nil {
		return nil
	}

	state, err := w.readState(ctx, store)
	if err != nil {
		atomic.AddInt64(&w.errors, 1)
		w.metrics.recordError("state_read")
		w.logger.Warn("Failed to read game state", "bucket", w.stateBucket, "error", err)
		return nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		w.metrics.recordError("envelope_marshal")
		return nil
	}
	frame, err := json.Marshal(Envelope{
		Type:      EnvelopeState,
		ID:        w.generateMessageID(),
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	})
	if err != nil {
		w.metrics.recordError("envelope_marshal")
		return nil
	}

	if err := w.writeFrame(info, frame); err != nil {
		return err
	}
	atomic.AddInt64(&w.messagesSent, 1)
	atomic.AddInt64(&w.bytesSent, int64(len(frame)))
	w.metrics.recordSent(PortState, len(frame))
	return nil
}

// newCommandLimiter returns the per-client command limiter. A zero rate means
// unlimited.
func (w *Output) newCommandLimiter() *rate.Limiter {
	if w.config.CommandRate == 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := w.config.CommandBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(w.config.CommandRate), burst)
}

// handleClient reads client frames until the connection fails
func (w *Output) handleClient(info *clientInfo) {
	defer w.wg.Done()

	reason := "closed"
	defer func() { w.removeClient(info, reason) }()

	conn := info.conn
	if w.config.ReadLimit > 0 {
		conn.SetReadLimit(w.config.ReadLimit)
	}
	deadline := 2 * w.pingInterval
	_ = conn.SetReadDeadline(time.Now().Add(deadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				reason = "error"
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(deadline))

		var envelope Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			w.metrics.recordError("client_frame")
			continue
		}
		if envelope.Type != EnvelopeCommand {
			continue
		}
		if !info.commands.Allow() {
			w.metrics.recordError("command_rate_limited")
			continue
		}
		w.forwardCommand(envelope.Line)
	}
}

// forwardCommand publishes a line typed in a renderer to the command subject
func (w *Output) forwardCommand(line string) {
	if w.commandSubject == "" || line == "" {
		return
	}

	payload := &command.CommandPayload{Line: line}
	data, err := json.Marshal(message.NewBaseMessage(payload.Schema(), payload, w.name))
	if err != nil {
		atomic.AddInt64(&w.errors, 1)
		w.metrics.recordError("command_marshal")
		return
	}
	if err := w.bus.Publish(context.Background(), w.commandSubject, data); err != nil {
		atomic.AddInt64(&w.errors, 1)
		w.metrics.recordError("command_publish")
		w.logger.Warn("Failed to forward client command", "subject", w.commandSubject, "error", err)
		return
	}
	atomic.AddInt64(&w.commandsForwarded, 1)
	w.metrics.recordCommand()
}

// removeClient closes and forgets a client once
func (w *Output) removeClient(info *clientInfo, reason string) {
	info.closeOnce.Do(func() {
		info.closed.Store(true)

		w.clientsMu.Lock()
		delete(w.clients, info.conn)
		count := len(w.clients)
		w.clientsMu.Unlock()

		w.metrics.recordDisconnect(reason, count)
		_ = info.conn.Close()
	})
}

// maintainClients pings clients until shutdown
func (w *Output) maintainClients() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdown:
			return
		case <-ticker.C:
			w.pingClients()
		}
	}
}

func (w *Output) pingClients() {
	w.clientsMu.RLock()
	clients := make([]*clientInfo, 0, len(w.clients))
	for _, info := range w.clients {
		clients = append(clients, info)
	}
	w.clientsMu.RUnlock()

	for _, info := range clients {
		if info.closed.Load() {
			continue
		}
		if err := info.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(w.writeTimeout)); err != nil {
			atomic.AddInt64(&w.errors, 1)
			w.metrics.recordError("ping")
			w.removeClient(info, "ping_failed")
		}
	}
}

// Register registers the WebSocket output component with the given registry
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "websocket",
		Factory:     CreateOutput,
		Schema:      websocketSchema,
		Type:        "output",
		Protocol:    "websocket",
		Domain:      "network",
		Description: "Streams tags, settings and events to renderer clients and accepts typed commands",
		Version:     "0.1.0",
	})
}
