// Package proc supervises the external producer process whose standard
// output feeds a stream pipeline. The supervisor owns the full lifecycle:
// spawn with an early-failure grace check, non-blocking timed line reads
// from stdout, bounded capture of stderr diagnostics, non-blocking exit
// detection, and exactly-once termination with reaping so no child ever
// outlives its owner.
package proc

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/NMBawiskar/ros-data-publisher/errors"
)

// State represents the lifecycle state of a supervised process
type State int

const (
	// StateStarting indicates the process has not been spawned yet
	StateStarting State = iota
	// StateRunning indicates the process is alive
	StateRunning
	// StateExited indicates the process has terminated
	StateExited
)

// String returns a string representation of the process state
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

const (
	// defaultSpawnGrace is how long Spawn watches for an immediate exit
	// before declaring the producer started.
	defaultSpawnGrace = 200 * time.Millisecond

	// defaultTermWait is how long TerminateAndWait allows SIGTERM to work
	// before escalating to SIGKILL.
	defaultTermWait = 2 * time.Second

	// lineBufferSize bounds the stdout line channel. When the consumer
	// stalls, backpressure lands in the OS pipe, not in our memory.
	lineBufferSize = 256

	// maxStderrBytes bounds captured diagnostic output.
	maxStderrBytes = 16 * 1024

	// maxLineBytes bounds a single stdout line.
	maxLineBytes = 256 * 1024
)

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		s.logger = logger
	}
}

// WithSpawnGrace overrides the early-failure grace period.
func WithSpawnGrace(d time.Duration) Option {
	return func(s *Supervisor) {
		s.spawnGrace = d
	}
}

// WithTermWait overrides how long SIGTERM may take before SIGKILL.
func WithTermWait(d time.Duration) Option {
	return func(s *Supervisor) {
		s.termWait = d
	}
}

// Supervisor runs one external producer process and exposes its stdout as
// a timed line stream. A Supervisor is owned by exactly one pipeline; it
// is never shared across concurrent streams.
type Supervisor struct {
	id         string
	argv       []string
	logger     *slog.Logger
	spawnGrace time.Duration
	termWait   time.Duration

	cmd      *exec.Cmd
	lines    chan string
	shutdown chan struct{}
	exited   chan struct{}

	state    atomic.Int32
	spawned  atomic.Bool
	exitCode atomic.Int64

	stderrMu  sync.Mutex
	stderrBuf bytes.Buffer

	readerWG sync.WaitGroup
	termOnce sync.Once
	termErr  error
}

// New creates a supervisor for the given argv. The command is an
// already-resolved argument list; the supervisor performs no command
// construction of its own.
func New(argv []string, options ...Option) (*Supervisor, error) {
	if len(argv) == 0 {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig,
			"Supervisor", "New", "argv validation")
	}

	s := &Supervisor{
		id:         uuid.NewString(),
		argv:       argv,
		spawnGrace: defaultSpawnGrace,
		termWait:   defaultTermWait,
		lines:      make(chan string, lineBufferSize),
		shutdown:   make(chan struct{}),
		exited:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "supervisor")
	}
	s.logger = s.logger.With("process_id", s.id, "command", argv[0])
	return s, nil
}

// ID returns the unique identity of this supervised process.
func (s *Supervisor) ID() string {
	return s.id
}

// State returns the current lifecycle state without blocking.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// Spawn starts the producer process and begins capturing its output
// streams. After the child starts, Spawn watches it for a short grace
// period: a child that has already exited is reported as a spawn failure
// carrying whatever it wrote to stderr.
func (s *Supervisor) Spawn() error {
	if !s.spawned.CompareAndSwap(false, true) {
		return errors.WrapInvalid(errors.ErrAlreadySpawned, "Supervisor", "Spawn", "state check")
	}

	cmd := exec.Command(s.argv[0], s.argv[1:]...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.WrapFatal(err, "Supervisor", "Spawn", "stdout pipe")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.WrapFatal(err, "Supervisor", "Spawn", "stderr pipe")
	}

	if err := cmd.Start(); err != nil {
		return errors.WrapFatal(
			fmt.Errorf("%w: %v", errors.ErrSpawnFailed, err),
			"Supervisor", "Spawn", "process start")
	}

	s.cmd = cmd
	s.state.Store(int32(StateRunning))
	s.logger.Debug("producer spawned", "pid", cmd.Process.Pid)

	s.readerWG.Add(2)
	go s.readStdout(stdout)
	go s.readStderr(stderr)
	go s.reap()

	// Grace-period check: a producer that dies immediately (bad topic,
	// missing middleware) is a spawn failure, not a mid-stream exit.
	select {
	case <-s.exited:
		return errors.WrapFatal(
			fmt.Errorf("%w: exit code %d: %s", errors.ErrSpawnFailed, s.exitCode.Load(), s.Diagnostics()),
			"Supervisor", "Spawn", "grace period check")
	case <-time.After(s.spawnGrace):
		return nil
	}
}

// readStdout scans producer stdout into the line channel. The channel is
// closed at end-of-stream so readers observe EOF.
func (s *Supervisor) readStdout(r io.Reader) {
	defer s.readerWG.Done()
	defer close(s.lines)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for scanner.Scan() {
		select {
		case s.lines <- scanner.Text():
		case <-s.shutdown:
			return
		}
	}
}

// readStderr captures diagnostic output up to a fixed cap.
func (s *Supervisor) readStderr(r io.Reader) {
	defer s.readerWG.Done()

	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			s.stderrMu.Lock()
			if s.stderrBuf.Len() < maxStderrBytes {
				remaining := maxStderrBytes - s.stderrBuf.Len()
				if n > remaining {
					n = remaining
				}
				s.stderrBuf.Write(buf[:n])
			}
			s.stderrMu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// reap waits for both output streams to drain, then reaps the child and
// publishes its exit.
func (s *Supervisor) reap() {
	s.readerWG.Wait()

	err := s.cmd.Wait()
	code := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
	} else if err != nil {
		code = -1
	}

	s.exitCode.Store(int64(code))
	s.state.Store(int32(StateExited))
	close(s.exited)
	s.logger.Debug("producer exited", "exit_code", code)
}

// ReadLine attempts to read one line of producer stdout within timeout.
// A timeout is not an error: it returns ("", false, nil) so callers can
// poll without blocking. End-of-stream is reported as io.EOF.
func (s *Supervisor) ReadLine(timeout time.Duration) (string, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case line, ok := <-s.lines:
		if !ok {
			return "", false, io.EOF
		}
		return line, true, nil
	case <-timer.C:
		return "", false, nil
	}
}

// Exited returns a channel closed once the child has been reaped.
func (s *Supervisor) Exited() <-chan struct{} {
	return s.exited
}

// ExitCode returns the child's exit code once it has exited.
func (s *Supervisor) ExitCode() (int, bool) {
	if s.State() != StateExited {
		return 0, false
	}
	return int(s.exitCode.Load()), true
}

// Diagnostics returns the captured stderr output so far.
func (s *Supervisor) Diagnostics() string {
	s.stderrMu.Lock()
	defer s.stderrMu.Unlock()
	return s.stderrBuf.String()
}

// TerminateAndWait requests termination and blocks until the child's exit
// has been observed and reaped. It is safe to call from every teardown
// path; only the first call acts, and no code path may leave the child
// running afterwards.
func (s *Supervisor) TerminateAndWait() error {
	if !s.spawned.Load() || s.cmd == nil {
		return errors.WrapInvalid(errors.ErrNotSpawned, "Supervisor", "TerminateAndWait", "state check")
	}

	s.termOnce.Do(func() {
		close(s.shutdown)

		if s.State() != StateExited {
			if err := s.cmd.Process.Signal(syscall.SIGTERM); err != nil {
				s.logger.Debug("SIGTERM delivery failed", "error", err)
			}

			select {
			case <-s.exited:
			case <-time.After(s.termWait):
				s.logger.Warn("producer ignored SIGTERM, escalating to SIGKILL")
				if err := s.cmd.Process.Kill(); err != nil {
					s.termErr = errors.WrapTransient(err, "Supervisor", "TerminateAndWait", "kill")
				}
				<-s.exited
			}
		} else {
			<-s.exited
		}
	})

	return s.termErr
}
