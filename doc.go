// Package rosdatapublisher streams live ROS topic telemetry to web clients.
//
// # Architecture
//
// The service turns the plain-text output of `ros2 topic echo` into
// structured JSON events and fans them out over HTTP:
//
//	┌──────────────┐    stdout lines    ┌──────────────┐
//	│   producer   │ ─────────────────► │     echo     │  indent-frame
//	│ (live/synth) │                    │    parser    │  parsing
//	└──────────────┘                    └──────┬───────┘
//	                                           │ frames
//	                                    ┌──────▼───────┐
//	                                    │   pipeline   │  coalescing,
//	                                    │              │  pacing
//	                                    └──────┬───────┘
//	                                           │ events
//	                                    ┌──────▼───────┐
//	                                    │ http gateway │  SSE / WebSocket
//	                                    └──────────────┘
//
// Each subscriber gets its own producer process and pipeline; nothing is
// shared between connections, so a slow client never stalls another.
// When a burst of frames arrives faster than the delivery cycle, older
// frames are discarded and only the freshest one is sent (latest-wins).
//
// # Packages
//
// Core data path:
//   - echo: parser for the indented key/value frame format
//   - rosmsg: scalar coercion and nested record tree building
//   - pipeline: per-subscriber stream loop with coalescing and pacing
//   - producer: live child-process and synthetic frame sources
//   - proc: child-process supervision (spawn, read, terminate)
//
// Serving:
//   - gateway: topic catalog and gateway contract
//   - gateway/http: HTTP server with SSE and WebSocket endpoints
//
// Infrastructure:
//   - config: JSON configuration with schema validation
//   - errors: classified error handling (invalid, transient, fatal)
//   - metric: Prometheus metrics registry and exposition server
//   - health: component health status and aggregation
//   - component: lifecycle and discovery contracts
//   - pkg/mailbox: generic latest-wins cell
//   - pkg/retry: retry policies with backoff
//   - pkg/timestamp: wall-clock event timestamps
//
// # Binary
//
// Build and run the service:
//
//	go build -o bin/ros-data-publisher ./cmd/ros-data-publisher
//	./bin/ros-data-publisher --config configs/example.json
//
// With no config file the server starts on :8000 in synthetic mode,
// publishing generated telemetry for a demo topic catalog.
package rosdatapublisher
