package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath      string
	LogLevel        string
	LogFormat       string
	Debug           bool
	Port            int
	ProducerMode    string
	ShutdownTimeout time.Duration
	ShowVersion     bool
	ShowHelp        bool
	Validate        bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("ROSDATAPUB_CONFIG", ""),
		"Path to configuration file, empty for built-in defaults (env: ROSDATAPUB_CONFIG)")

	flag.StringVar(&cfg.ConfigPath, "c",
		getEnv("ROSDATAPUB_CONFIG", ""),
		"Path to configuration file, empty for built-in defaults (env: ROSDATAPUB_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("ROSDATAPUB_LOG_LEVEL", ""),
		"Log level: debug, info, warn, error (env: ROSDATAPUB_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("ROSDATAPUB_LOG_FORMAT", ""),
		"Log format: json, text (env: ROSDATAPUB_LOG_FORMAT)")

	flag.BoolVar(&cfg.Debug, "debug",
		getEnvBool("ROSDATAPUB_DEBUG", false),
		"Enable debug mode (env: ROSDATAPUB_DEBUG)")

	flag.IntVar(&cfg.Port, "port",
		getEnvInt("ROSDATAPUB_PORT", 0),
		"HTTP listen port, 0 to use config value (env: ROSDATAPUB_PORT)")

	flag.StringVar(&cfg.ProducerMode, "mode",
		getEnv("ROSDATAPUB_MODE", ""),
		"Producer mode: live, synthetic; empty to use config value (env: ROSDATAPUB_MODE)")

	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("ROSDATAPUB_SHUTDOWN_TIMEOUT", 0),
		"Graceful shutdown timeout, 0 to use config value (env: ROSDATAPUB_SHUTDOWN_TIMEOUT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	// Custom usage
	flag.Usage = func() {
		printDetailedHelp()
	}

	flag.Parse()

	// Override log level if debug is set
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	// Skip validation for special flags
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	// Validate config file exists when given
	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	// Validate log level
	validLevels := []string{"", "debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	// Validate log format
	validFormats := []string{"", "json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	// Validate producer mode
	validModes := []string{"", "live", "synthetic"}
	if !contains(validModes, cfg.ProducerMode) {
		return fmt.Errorf("invalid producer mode: %s", cfg.ProducerMode)
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Live ROS Topic Streaming

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Run with built-in defaults (synthetic demo topics)
  %s

  # Run with custom config
  %s --config=/path/to/config.json

  # Stream real topics through ros2 topic echo
  %s --mode=live

  # Run with environment variables
  export ROSDATAPUB_CONFIG=/etc/ros-data-publisher/config.json
  export ROSDATAPUB_LOG_LEVEL=debug
  %s

  # Validate configuration only
  %s --config=/path/to/config.json --validate

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
