// Package config defines the application configuration: the gateway
// listener, the producer mode (live echo child processes or synthetic
// in-process generation), per-stream read cycle tuning, the topic
// catalog, and logging.
//
// Configuration is loaded from a single JSON file. Files are validated
// twice: first structurally against an embedded JSON schema, then
// semantically (port ranges, topic name syntax, mode-specific
// requirements). Settings absent from the file keep the defaults from
// Default(), which serve the standard demo topic catalog with
// synthetic producers so the service runs with no file at all.
//
// SafeConfig wraps a Config for concurrent readers; Update validates
// before swapping so readers never observe an invalid configuration.
package config
