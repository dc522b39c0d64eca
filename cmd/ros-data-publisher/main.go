// Package main implements the entry point for ros-data-publisher, a
// service that streams live ROS topic telemetry to web clients over
// Server-Sent Events and WebSockets.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NMBawiskar/ros-data-publisher/config"
	"github.com/NMBawiskar/ros-data-publisher/gateway"
	httpgw "github.com/NMBawiskar/ros-data-publisher/gateway/http"
	"github.com/NMBawiskar/ros-data-publisher/health"
	"github.com/NMBawiskar/ros-data-publisher/metric"
	"github.com/NMBawiskar/ros-data-publisher/producer"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "ros-data-publisher"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	// Run application with proper error handling
	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	// Parse and validate CLI flags
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	// Load and validate configuration
	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	// Re-setup logging with config values if flags did not set them
	logger = reconcileLogger(cliCfg, cfg, logger)

	registry := metric.NewMetricsRegistry()
	monitor := health.NewMonitor()

	catalog, err := buildCatalog(cfg)
	if err != nil {
		return fmt.Errorf("build topic catalog: %w", err)
	}

	factory := buildProducerFactory(cfg, logger, registry)

	server, err := buildGateway(cfg, catalog, factory, logger, registry, monitor)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}

	return runWithSignalHandling(cfg, server, registry, cfg.Server.ShutdownTimeout())
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting ros-data-publisher (live topic streaming)",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// initializeConfiguration loads configuration and applies flag overrides
func initializeConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	var cfg *config.Config
	if cliCfg.ConfigPath == "" {
		cfg = config.Default()
	} else {
		loaded, err := config.Load(cliCfg.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	// Flag overrides take precedence over file values
	if cliCfg.Port != 0 {
		cfg.Server.Port = cliCfg.Port
	}
	if cliCfg.ProducerMode != "" {
		cfg.Producer.Mode = cliCfg.ProducerMode
	}
	if cliCfg.LogLevel != "" {
		cfg.Logging.Level = cliCfg.LogLevel
	}
	if cliCfg.LogFormat != "" {
		cfg.Logging.Format = cliCfg.LogFormat
	}
	if cliCfg.ShutdownTimeout > 0 {
		cfg.Server.ShutdownTimeoutMS = int(cliCfg.ShutdownTimeout / time.Millisecond)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// reconcileLogger rebuilds the logger when log settings came from the
// config file rather than flags or environment.
func reconcileLogger(cliCfg *CLIConfig, cfg *config.Config, current *slog.Logger) *slog.Logger {
	if cliCfg.LogLevel != "" && cliCfg.LogFormat != "" {
		return current
	}
	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)
	return logger
}

// buildCatalog converts configured topics into the gateway catalog
func buildCatalog(cfg *config.Config) (*gateway.Catalog, error) {
	topics := make([]gateway.Topic, 0, len(cfg.Topics))
	for _, topic := range cfg.Topics {
		topics = append(topics, gateway.Topic{Name: topic.Name, Type: topic.Type})
	}
	return gateway.NewCatalog(topics)
}

// buildProducerFactory wires the per-stream telemetry source factory
func buildProducerFactory(
	cfg *config.Config,
	logger *slog.Logger,
	registry *metric.MetricsRegistry,
) *producer.Factory {
	return &producer.Factory{
		Mode:            producer.Mode(cfg.Producer.Mode),
		Command:         cfg.Producer.Command,
		SpawnGrace:      time.Duration(cfg.Producer.SpawnGraceMS) * time.Millisecond,
		TermWait:        time.Duration(cfg.Producer.TermWaitMS) * time.Millisecond,
		PublishInterval: time.Duration(cfg.Producer.PublishIntervalMS) * time.Millisecond,
		Logger:          logger,
		Registry:        registry,
	}
}

// buildGateway creates and initializes the HTTP gateway component
func buildGateway(
	cfg *config.Config,
	catalog *gateway.Catalog,
	factory *producer.Factory,
	logger *slog.Logger,
	registry *metric.MetricsRegistry,
	monitor *health.Monitor,
) (*httpgw.Server, error) {
	server, err := httpgw.NewServer(httpgw.Config{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		CORSOrigins:   cfg.Server.CORSAllowOrigins,
		ReadTimeout:   cfg.Stream.ReadTimeout(),
		CycleInterval: cfg.Stream.CycleInterval(),
	}, httpgw.Deps{
		Catalog:  catalog,
		Factory:  factory,
		Logger:   logger,
		Registry: registry,
		Monitor:  monitor,
	})
	if err != nil {
		return nil, err
	}
	if err := server.Initialize(); err != nil {
		return nil, err
	}
	return server, nil
}

// runWithSignalHandling starts the service and handles shutdown signals
func runWithSignalHandling(
	cfg *config.Config,
	server *httpgw.Server,
	registry *metric.MetricsRegistry,
	shutdownTimeout time.Duration,
) error {
	signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := server.Start(signalCtx); err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}

	group, groupCtx := errgroup.WithContext(signalCtx)

	// Optional dedicated metrics listener for scrapers that must not
	// reach the public gateway port.
	var metricsServer *metric.Server
	if cfg.Server.MetricsPort > 0 {
		metricsServer = metric.NewServer(cfg.Server.MetricsPort, "/metrics", registry)
		group.Go(func() error {
			slog.Info("metrics server listening", "port", cfg.Server.MetricsPort)
			return metricsServer.Start()
		})
	}

	slog.Info("ros-data-publisher started", "addr", server.Addr())

	<-groupCtx.Done()
	slog.Info("Received shutdown signal")

	if err := server.Stop(shutdownTimeout); err != nil {
		slog.Error("Error stopping gateway", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			slog.Error("Error stopping metrics server", "error", err)
		}
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("ros-data-publisher shutdown complete")
	return nil
}
