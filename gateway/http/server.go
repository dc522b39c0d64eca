// Package http provides the HTTP gateway: the topic catalog API and the
// per-topic streaming endpoints (Server-Sent Events and WebSocket).
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NMBawiskar/ros-data-publisher/component"
	"github.com/NMBawiskar/ros-data-publisher/errors"
	"github.com/NMBawiskar/ros-data-publisher/gateway"
	"github.com/NMBawiskar/ros-data-publisher/health"
	"github.com/NMBawiskar/ros-data-publisher/metric"
	"github.com/NMBawiskar/ros-data-publisher/pipeline"
	"github.com/NMBawiskar/ros-data-publisher/pkg/retry"
	"github.com/NMBawiskar/ros-data-publisher/producer"
)

const serverName = "http-gateway"

// Config holds the HTTP gateway settings.
type Config struct {
	Host string
	Port int

	// CORSOrigins lists origins allowed to call the API from a
	// browser; "*" allows any origin. Empty disables CORS headers.
	CORSOrigins []string

	// Per-stream read cycle tuning, passed through to each pipeline.
	ReadTimeout   time.Duration
	CycleInterval time.Duration
}

// Deps carries the gateway's collaborators.
type Deps struct {
	Catalog  *gateway.Catalog
	Factory  *producer.Factory
	Logger   *slog.Logger
	Registry *metric.MetricsRegistry
	Monitor  *health.Monitor
}

// Server implements the HTTP gateway as a lifecycle component. Each
// streaming subscriber gets its own producer and pipeline; nothing is
// shared between clients.
type Server struct {
	name    string
	config  Config
	catalog *gateway.Catalog
	factory *producer.Factory
	logger  *slog.Logger

	registry      *metric.MetricsRegistry
	core          *metric.Metrics
	streamMetrics *pipeline.Metrics
	monitor       *health.Monitor

	mux        *http.ServeMux
	httpServer *http.Server
	listener   net.Listener

	running atomic.Bool

	mu           sync.RWMutex
	startTime    time.Time
	lastActivity time.Time

	requestsTotal  atomic.Uint64
	requestsFailed atomic.Uint64
	eventsSent     atomic.Uint64
	bytesSent      atomic.Uint64
}

// NewServer creates the HTTP gateway.
func NewServer(config Config, deps Deps) (*Server, error) {
	if deps.Catalog == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Server", "NewServer",
			"topic catalog is required")
	}
	if deps.Factory == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Server", "NewServer",
			"producer factory is required")
	}
	// Port 0 binds an ephemeral port.
	if config.Port < 0 || config.Port > 65535 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Server", "NewServer",
			fmt.Sprintf("port %d out of range", config.Port))
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		name:     serverName,
		config:   config,
		catalog:  deps.Catalog,
		factory:  deps.Factory,
		logger:   logger.With("component", serverName),
		registry: deps.Registry,
		monitor:  deps.Monitor,
	}
	if deps.Registry != nil {
		s.core = deps.Registry.CoreMetrics()
		s.streamMetrics = pipeline.NewMetrics(deps.Registry)
	}
	return s, nil
}

// Initialize builds the route table.
func (s *Server) Initialize() error {
	mux := http.NewServeMux()
	s.RegisterHTTPHandlers("/", mux)
	s.mux = mux
	return nil
}

// Start binds the listener and begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Server", "Start",
			"gateway already running")
	}
	if s.mux == nil {
		if err := s.Initialize(); err != nil {
			return err
		}
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	// Binding can race a previous instance releasing the port.
	var listener net.Listener
	err := retry.Do(ctx, retry.Quick(), func() error {
		var bindErr error
		listener, bindErr = net.Listen("tcp", addr)
		return bindErr
	})
	if err != nil {
		return errors.WrapFatal(err, "Server", "Start",
			fmt.Sprintf("failed to bind %s", addr))
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.corsMiddleware(s.mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.startTime = time.Now()
	s.mu.Unlock()
	s.running.Store(true)

	if s.monitor != nil {
		s.monitor.UpdateHealthy(s.name, fmt.Sprintf("listening on %s", addr))
	}
	s.logger.Info("gateway listening", "addr", addr, "topics", s.catalog.Len())

	go func() {
		if serveErr := s.httpServer.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("gateway serve failed", "error", serveErr)
			s.running.Store(false)
			if s.monitor != nil {
				s.monitor.UpdateUnhealthy(s.name, serveErr.Error())
			}
		}
	}()
	return nil
}

// Stop drains in-flight requests and shuts the listener down. Active
// streams end when their request contexts are cancelled by Shutdown.
func (s *Server) Stop(timeout time.Duration) error {
	if !s.running.Load() {
		return nil
	}
	s.running.Store(false)

	s.mu.RLock()
	srv := s.httpServer
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		// Streaming connections never finish on their own; force them.
		if closeErr := srv.Close(); closeErr != nil {
			return errors.WrapTransient(closeErr, "Server", "Stop", "close failed")
		}
	}
	if s.monitor != nil {
		s.monitor.Update(s.name, health.NewUnhealthy(s.name, "stopped"))
	}
	return nil
}

// Addr returns the bound listener address, useful when Port was 0.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Meta returns component metadata
func (s *Server) Meta() component.Metadata {
	return component.Metadata{
		Name:        s.name,
		Type:        "gateway",
		Description: "HTTP gateway serving topic catalog and telemetry streams",
		Version:     "0.1.0",
	}
}

// Health returns the current health status
func (s *Server) Health() component.HealthStatus {
	s.mu.RLock()
	startTime := s.startTime
	s.mu.RUnlock()

	var uptime time.Duration
	if !startTime.IsZero() {
		uptime = time.Since(startTime)
	}
	return component.HealthStatus{
		Healthy:    s.running.Load(),
		LastCheck:  time.Now(),
		ErrorCount: int(s.requestsFailed.Load()),
		Uptime:     uptime,
	}
}

// DataFlow returns current data flow metrics
func (s *Server) DataFlow() component.FlowMetrics {
	s.mu.RLock()
	startTime := s.startTime
	lastActivity := s.lastActivity
	s.mu.RUnlock()

	total := s.requestsTotal.Load()
	failed := s.requestsFailed.Load()

	var errorRate float64
	if total > 0 {
		errorRate = float64(failed) / float64(total)
	}

	var eventsPerSecond, bytesPerSecond float64
	if !startTime.IsZero() {
		uptime := time.Since(startTime).Seconds()
		if uptime > 0 {
			eventsPerSecond = float64(s.eventsSent.Load()) / uptime
			bytesPerSecond = float64(s.bytesSent.Load()) / uptime
		}
	}

	return component.FlowMetrics{
		MessagesPerSecond: eventsPerSecond,
		BytesPerSecond:    bytesPerSecond,
		ErrorRate:         errorRate,
		LastActivity:      lastActivity,
	}
}

func (s *Server) touch() {
	s.requestsTotal.Add(1)
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}
