package producer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/NMBawiskar/ros-data-publisher/metric"
	"github.com/NMBawiskar/ros-data-publisher/proc"
)

// Live streams telemetry from a supervised child process, one process
// per stream. It adapts proc.Supervisor to the pipeline source contract
// and keeps the producer process accounting metrics current.
type Live struct {
	sup     *proc.Supervisor
	metrics *metric.Metrics

	closeOnce sync.Once
	spawned   bool
	mu        sync.Mutex
}

// NewLive creates a live producer that will run argv when started.
func NewLive(argv []string, logger *slog.Logger, registry *metric.MetricsRegistry,
	options ...proc.Option) (*Live, error) {
	if logger != nil {
		options = append(options, proc.WithLogger(logger))
	}
	sup, err := proc.New(argv, options...)
	if err != nil {
		return nil, err
	}

	live := &Live{sup: sup}
	if registry != nil {
		live.metrics = registry.CoreMetrics()
	}
	return live, nil
}

// Start spawns the child process.
func (l *Live) Start() error {
	if err := l.sup.Spawn(); err != nil {
		return err
	}
	l.mu.Lock()
	l.spawned = true
	l.mu.Unlock()
	if l.metrics != nil {
		l.metrics.RecordProducerSpawned()
	}
	return nil
}

// ReadLine returns the next stdout line, waiting up to timeout.
func (l *Live) ReadLine(timeout time.Duration) (string, bool, error) {
	return l.sup.ReadLine(timeout)
}

// Exited is closed once the child process has been reaped.
func (l *Live) Exited() <-chan struct{} {
	return l.sup.Exited()
}

// ExitCode reports the child's exit code once it has exited.
func (l *Live) ExitCode() (int, bool) {
	return l.sup.ExitCode()
}

// Diagnostics returns captured stderr output from the child.
func (l *Live) Diagnostics() string {
	return l.sup.Diagnostics()
}

// Close tears the child process down. Safe to call multiple times and
// safe to call when the spawn itself failed.
func (l *Live) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.mu.Lock()
		spawned := l.spawned
		l.mu.Unlock()
		if !spawned {
			return
		}
		err = l.sup.TerminateAndWait()
		if l.metrics != nil {
			l.metrics.RecordProducerTornDown()
		}
	})
	return err
}
