// Package main implements the outlander binary, which runs the StormFront stream
// processor and its outputs against a NATS bus.
package main

import (
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/outlander/component"
	"github.com/c360/outlander/componentregistry"
	"github.com/c360/outlander/config"
	"github.com/c360/outlander/health"
	"github.com/c360/outlander/metric"
	"github.com/c360/outlander/natsclient"
	"github.com/c360/outlander/types"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "outlander"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(os.Args[1:]); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

// instance is one created component, in start order.
type instance struct {
	name string
	comp component.Discoverable
}

func run(args []string) error {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	cliCfg, err := parseFlags(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse flags: %w", err)
	}
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp(fs)
		return nil
	}

	logger := setupLogger(os.Stdout, cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	logger.Info("Starting Outlander stream processor",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	cfg, err := loadConfig(cliCfg.ConfigPath)
	if err != nil {
		return err
	}
	if cliCfg.MetricsPort > 0 {
		cfg.Metrics.Port = cliCfg.MetricsPort
	}

	registry := component.NewRegistry()
	if err := componentregistry.Register(registry); err != nil {
		return fmt.Errorf("register components: %w", err)
	}
	logger.Debug("Component factories registered", "factories", registry.ListComponentTypes())

	if err := checkComponentFactories(cfg, registry); err != nil {
		return err
	}

	if cliCfg.Validate {
		logger.Info("Configuration is valid", "components", cfg.EnabledComponents())
		return nil
	}

	ctx := context.Background()
	metricsRegistry := metric.NewMetricsRegistry()

	natsClient, err := createNATSClient(cfg, logger, metricsRegistry.CoreMetrics())
	if err != nil {
		return err
	}
	if err := connectToNATS(ctx, natsClient); err != nil {
		return err
	}
	defer func() {
		if err := natsClient.Close(context.Background()); err != nil {
			logger.Warn("NATS close failed", "error", err)
		}
	}()

	deps := component.Dependencies{
		NATSClient:      natsClient,
		MetricsRegistry: metricsRegistry,
		Logger:          logger,
		Platform:        cfg.PlatformMeta(),
	}

	instances, err := createComponents(cfg, registry, deps)
	if err != nil {
		return err
	}

	var server *metric.Server
	if cfg.Metrics.Enabled {
		server = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, metricsRegistry,
			healthReporter(natsClient, instances, metricsRegistry.CoreMetrics()))
	}

	return runWithSignalHandling(ctx, instances, server, cliCfg.ShutdownTimeout)
}

// loadConfig loads and validates the configuration file
func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()
	loader.EnableValidation(true)
	cfg, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// checkComponentFactories fails when an enabled component names an unknown factory
func checkComponentFactories(cfg *config.Config, registry *component.Registry) error {
	known := registry.ListComponentTypes()
	for _, name := range cfg.EnabledComponents() {
		factory := cfg.Components[name].Name
		if !slices.Contains(known, factory) {
			return fmt.Errorf("component %s: unknown factory %q (available: %v)", name, factory, known)
		}
	}
	return nil
}

// createNATSClient builds the client from the NATS section of the config
func createNATSClient(cfg *config.Config, logger *slog.Logger, core *metric.Metrics) (*natsclient.Client, error) {
	opts := []natsclient.ClientOption{
		natsclient.WithName(fmt.Sprintf("%s-%s", appName, cfg.Platform.ID)),
		natsclient.WithLogger(logger),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithHealthChangeCallback(core.RecordNATSStatus),
		natsclient.WithReconnectCallback(core.RecordNATSReconnect),
	}
	if cfg.NATS.ReconnectWait > 0 {
		opts = append(opts, natsclient.WithReconnectWait(cfg.NATS.ReconnectWait))
	}
	if cfg.NATS.Username != "" {
		opts = append(opts, natsclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.Token != "" {
		opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
	}

	client, err := natsclient.NewClient(cfg.NATSURL(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}
	return client, nil
}

// connectToNATS establishes the NATS connection and waits for it to be ready
func connectToNATS(ctx context.Context, natsClient *natsclient.Client) error {
	slog.Info("Connecting to NATS", "url", natsClient.URL())
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := natsClient.WaitForConnection(connCtx); err != nil {
		return fmt.Errorf("NATS connection timeout: %w", err)
	}
	return nil
}

// startOrder ranks component types so consumers subscribe before producers
// publish: outputs, then processors, then inputs. Stop runs in reverse.
var startOrder = map[types.ComponentType]int{
	types.ComponentTypeOutput:    0,
	types.ComponentTypeProcessor: 1,
	types.ComponentTypeInput:     2,
}

// componentOrder returns the enabled instance names in start order, by type
// rank and then by name. Unknown types start last.
func componentOrder(cfg *config.Config) []string {
	rank := func(name string) int {
		if r, ok := startOrder[cfg.Components[name].Type]; ok {
			return r
		}
		return len(startOrder)
	}

	names := cfg.EnabledComponents()
	slices.SortFunc(names, func(a, b string) int {
		return cmp.Or(cmp.Compare(rank(a), rank(b)), cmp.Compare(a, b))
	})
	return names
}

// createComponents creates every enabled component in start order
func createComponents(
	cfg *config.Config,
	registry *component.Registry,
	deps component.Dependencies,
) ([]instance, error) {
	names := componentOrder(cfg)

	instances := make([]instance, 0, len(names))
	for _, name := range names {
		comp, err := registry.CreateComponent(name, cfg.Components[name], deps)
		if err != nil {
			return nil, fmt.Errorf("create component %s: %w", name, err)
		}
		slog.Info("Created component", "name", name, "factory", cfg.Components[name].Name)
		instances = append(instances, instance{name: name, comp: comp})
	}
	return instances, nil
}

// healthReporter aggregates NATS and component health for /health
func healthReporter(natsClient *natsclient.Client, instances []instance, core *metric.Metrics) metric.HealthFunc {
	monitor := health.NewMonitor()
	return func() (bool, any) {
		natsStatus := health.NewHealthy("nats", "connected")
		if !natsClient.IsHealthy() {
			natsStatus = health.NewUnhealthy("nats", natsClient.Status().String())
		}
		logHealthChange(monitor, natsStatus)

		for _, inst := range instances {
			status := health.FromComponentHealth(inst.name, inst.comp.Health())
			logHealthChange(monitor, status)
			core.RecordHealthStatus(inst.name, status.IsHealthy())
		}

		overall := monitor.AggregateHealth(appName)
		return overall.IsHealthy(), overall
	}
}

func logHealthChange(monitor *health.Monitor, status health.Status) {
	if monitor.Update(status.Component, status) {
		slog.Warn("Health changed",
			"component", status.Component,
			"status", status.Status,
			"message", status.Message)
	}
}

// startComponents initializes and starts lifecycle components in order
func startComponents(ctx context.Context, instances []instance) ([]instance, error) {
	started := make([]instance, 0, len(instances))
	for _, inst := range instances {
		lc, ok := component.AsLifecycleComponent(inst.comp)
		if !ok {
			continue
		}
		if err := lc.Initialize(); err != nil {
			return started, fmt.Errorf("initialize %s: %w", inst.name, err)
		}
		if err := lc.Start(ctx); err != nil {
			return started, fmt.Errorf("start %s: %w", inst.name, err)
		}
		slog.Info("Started component", "name", inst.name)
		started = append(started, inst)
	}
	return started, nil
}

// stopComponents stops started components in reverse order
func stopComponents(started []instance, timeout time.Duration) error {
	var errs []error
	for _, inst := range slices.Backward(started) {
		lc, _ := component.AsLifecycleComponent(inst.comp)
		if err := lc.Stop(timeout); err != nil {
			slog.Error("Error stopping component", "name", inst.name, "error", err)
			errs = append(errs, fmt.Errorf("stop %s: %w", inst.name, err))
		}
	}
	return errors.Join(errs...)
}

// runWithSignalHandling runs the components and the metrics server until
// SIGINT, SIGTERM or the first failure, then stops everything.
func runWithSignalHandling(
	ctx context.Context,
	instances []instance,
	server *metric.Server,
	shutdownTimeout time.Duration,
) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	g, gctx := errgroup.WithContext(signalCtx)

	if server != nil {
		g.Go(func() error {
			slog.Info("Metrics server starting", "address", server.Address())
			return server.Start(gctx)
		})
	}

	g.Go(func() error {
		started, err := startComponents(gctx, instances)
		if err != nil {
			_ = stopComponents(started, shutdownTimeout)
			return err
		}
		slog.Info("Outlander started", "components", len(started))

		<-gctx.Done()
		slog.Info("Shutting down", "cause", context.Cause(gctx))

		if err := stopComponents(started, shutdownTimeout); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("Outlander shutdown complete")
	return nil
}
