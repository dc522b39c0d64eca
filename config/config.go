package config

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/NMBawiskar/ros-data-publisher/errors"
	"github.com/NMBawiskar/ros-data-publisher/producer"
)

// Config represents the complete application configuration.
type Config struct {
	Version  string         `json:"version,omitempty"`
	Server   ServerConfig   `json:"server"`
	Producer ProducerConfig `json:"producer"`
	Stream   StreamConfig   `json:"stream"`
	Topics   []TopicConfig  `json:"topics"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig defines the HTTP gateway listener settings.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`

	// MetricsPort, when non-zero, exposes Prometheus metrics on a
	// dedicated listener in addition to the gateway's /metrics route.
	MetricsPort int `json:"metrics_port,omitempty"`

	// CORSAllowOrigins lists origins allowed to call the API from a
	// browser. "*" allows any origin.
	CORSAllowOrigins []string `json:"cors_allow_origins,omitempty"`

	ShutdownTimeoutMS int `json:"shutdown_timeout_ms,omitempty"`
}

// ProducerConfig controls how topic telemetry is produced.
type ProducerConfig struct {
	// Mode is "live" (spawn one echo child process per stream) or
	// "synthetic" (generate random frames in-process).
	Mode string `json:"mode"`

	// Command is the child process argv template for live mode; the
	// topic name is appended as the final argument.
	Command []string `json:"command,omitempty"`

	SpawnGraceMS      int `json:"spawn_grace_ms,omitempty"`
	TermWaitMS        int `json:"term_wait_ms,omitempty"`
	PublishIntervalMS int `json:"publish_interval_ms,omitempty"`
}

// StreamConfig tunes the per-stream read cycle.
type StreamConfig struct {
	ReadTimeoutMS   int `json:"read_timeout_ms,omitempty"`
	CycleIntervalMS int `json:"cycle_interval_ms,omitempty"`
}

// TopicConfig declares one streamable topic and its message type.
type TopicConfig struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `json:"level,omitempty"`  // debug, info, warn, error
	Format string `json:"format,omitempty"` // json or text
}

// Default returns the configuration used when no file is provided:
// synthetic producers for the standard demo topics.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8000,
			CORSAllowOrigins:  []string{"*"},
			ShutdownTimeoutMS: 5000,
		},
		Producer: ProducerConfig{
			Mode:    string(producer.ModeSynthetic),
			Command: []string{"ros2", "topic", "echo"},
		},
		Stream: StreamConfig{
			ReadTimeoutMS:   50,
			CycleIntervalMS: 50,
		},
		Topics: []TopicConfig{
			{Name: "/robot/position", Type: "geometry_msgs/Point"},
			{Name: "/robot/velocity", Type: "geometry_msgs/Twist"},
			{Name: "/sensor/gps", Type: "sensor_msgs/NavSatFix"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks semantic constraints the JSON schema cannot express.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.WrapInvalid(
			fmt.Errorf("server.port %d out of range", c.Server.Port),
			"Config", "Validate", "server validation failed")
	}
	if c.Server.MetricsPort != 0 &&
		(c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 || c.Server.MetricsPort == c.Server.Port) {
		return errors.WrapInvalid(
			fmt.Errorf("server.metrics_port %d invalid", c.Server.MetricsPort),
			"Config", "Validate", "server validation failed")
	}

	switch producer.Mode(c.Producer.Mode) {
	case producer.ModeLive:
		if len(c.Producer.Command) == 0 {
			return errors.WrapInvalid(
				fmt.Errorf("producer.command is required in live mode"),
				"Config", "Validate", "producer validation failed")
		}
	case producer.ModeSynthetic:
	default:
		return errors.WrapInvalid(
			fmt.Errorf("unknown producer.mode %q", c.Producer.Mode),
			"Config", "Validate", "producer validation failed")
	}

	if len(c.Topics) == 0 {
		return errors.WrapInvalid(
			fmt.Errorf("at least one topic is required"),
			"Config", "Validate", "topic validation failed")
	}
	seen := make(map[string]bool, len(c.Topics))
	for _, topic := range c.Topics {
		if err := producer.ValidateTopic(topic.Name); err != nil {
			return err
		}
		if topic.Type == "" {
			return errors.WrapInvalid(
				fmt.Errorf("topic %s has no message type", topic.Name),
				"Config", "Validate", "topic validation failed")
		}
		if seen[topic.Name] {
			return errors.WrapInvalid(
				fmt.Errorf("duplicate topic %s", topic.Name),
				"Config", "Validate", "topic validation failed")
		}
		seen[topic.Name] = true
	}

	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return errors.WrapInvalid(
			fmt.Errorf("unknown logging.format %q", c.Logging.Format),
			"Config", "Validate", "logging validation failed")
	}

	return nil
}

// ShutdownTimeout returns the configured shutdown timeout.
func (s ServerConfig) ShutdownTimeout() time.Duration {
	if s.ShutdownTimeoutMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ShutdownTimeoutMS) * time.Millisecond
}

// ReadTimeout returns the per-cycle line read timeout.
func (s StreamConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

// CycleInterval returns the delivery cycle interval.
func (s StreamConfig) CycleInterval() time.Duration {
	return time.Duration(s.CycleIntervalMS) * time.Millisecond
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}
	return &clone
}

// SafeConfig provides thread-safe access to configuration.
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper.
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = Default()
	}
	return &SafeConfig{config: cfg}
}

// Get returns a deep copy of the current configuration.
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically replaces the configuration after validation.
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return errors.WrapInvalid(
			fmt.Errorf("config cannot be nil"),
			"SafeConfig", "Update", "config update failed")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}
