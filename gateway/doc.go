// Package gateway defines the shared types for exposing topic streams
// to external clients: the topic catalog clients can subscribe to and
// the interface protocol gateways implement.
//
// The concrete HTTP implementation lives in gateway/http; it serves the
// topic list, per-topic Server-Sent Event and WebSocket streams, health
// and Prometheus metrics.
package gateway
