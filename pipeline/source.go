package pipeline

import "time"

// Source is a line-oriented telemetry producer owned by exactly one
// pipeline. The live implementation supervises an external process
// (producer.Live); the synthetic fallback generates frames in-process
// (producer.Synthetic). Either way the pipeline is the single consumer.
type Source interface {
	// Start brings the producer up. A producer that cannot start returns
	// an error carrying its diagnostic output.
	Start() error

	// ReadLine attempts to read one line within timeout. Timeouts return
	// ("", false, nil); end-of-stream returns io.EOF.
	ReadLine(timeout time.Duration) (string, bool, error)

	// Exited is closed once the producer has terminated.
	Exited() <-chan struct{}

	// ExitCode reports the exit code once the producer has terminated.
	ExitCode() (int, bool)

	// Diagnostics returns captured diagnostic output for failure reports.
	Diagnostics() string

	// Close terminates the producer and blocks until its exit is
	// observed. Safe to call more than once; only the first call acts.
	Close() error
}
