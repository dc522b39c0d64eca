package producer

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const (
	// defaultPublishInterval matches the cadence of a typical low-rate
	// telemetry publisher.
	defaultPublishInterval = 500 * time.Millisecond

	syntheticLineBuffer = 256
)

// Synthetic is an in-process telemetry source that emits random
// echo-formatted frames for a topic. It is used when no middleware is
// available, for demos and for tests. The frame shape follows the
// topic's message type.
type Synthetic struct {
	topic    string
	msgType  string
	interval time.Duration

	lines  chan string
	done   chan struct{}
	exited chan struct{}

	rngMu sync.Mutex
	rng   *rand.Rand

	startOnce sync.Once
	closeOnce sync.Once
}

// SyntheticOption configures a Synthetic source.
type SyntheticOption func(*Synthetic)

// WithPublishInterval overrides the delay between generated frames.
func WithPublishInterval(d time.Duration) SyntheticOption {
	return func(s *Synthetic) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSeed makes the generated values deterministic.
func WithSeed(seed int64) SyntheticOption {
	return func(s *Synthetic) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// NewSynthetic creates a synthetic producer for a topic of the given
// message type.
func NewSynthetic(topic, msgType string, options ...SyntheticOption) *Synthetic {
	s := &Synthetic{
		topic:    topic,
		msgType:  msgType,
		interval: defaultPublishInterval,
		lines:    make(chan string, syntheticLineBuffer),
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Start begins generating frames in the background.
func (s *Synthetic) Start() error {
	s.startOnce.Do(func() {
		go s.generate()
	})
	return nil
}

func (s *Synthetic) generate() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Emit one frame immediately so subscribers see data without
	// waiting a full interval.
	s.emitFrame()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.emitFrame()
		}
	}
}

func (s *Synthetic) emitFrame() {
	for _, line := range s.frameLines() {
		select {
		case s.lines <- line:
		case <-s.done:
			return
		default:
			// A slow reader drops whole lines here; downstream keeps
			// only the freshest complete frame anyway.
			return
		}
	}
}

// frameLines renders one message in the indented echo text format,
// terminated by the frame delimiter.
func (s *Synthetic) frameLines() []string {
	switch s.msgType {
	case "geometry_msgs/Point":
		return []string{
			fmt.Sprintf("x: %.3f", s.uniform(-100, 100)),
			fmt.Sprintf("y: %.3f", s.uniform(-100, 100)),
			fmt.Sprintf("z: %.3f", s.uniform(0, 50)),
			"---",
		}
	case "sensor_msgs/NavSatFix":
		return []string{
			fmt.Sprintf("x: %.3f", s.uniform(-100, 100)),
			fmt.Sprintf("y: %.3f", s.uniform(-100, 100)),
			fmt.Sprintf("z: %.3f", s.uniform(0, 50)),
			"---",
		}
	case "geometry_msgs/Twist":
		return []string{
			"linear:",
			fmt.Sprintf("  x: %.3f", s.uniform(-5, 5)),
			fmt.Sprintf("  y: %.3f", s.uniform(-5, 5)),
			fmt.Sprintf("  z: %.3f", s.uniform(-2, 2)),
			"angular:",
			fmt.Sprintf("  x: %.3f", s.uniform(-1, 1)),
			fmt.Sprintf("  y: %.3f", s.uniform(-1, 1)),
			fmt.Sprintf("  z: %.3f", s.uniform(-1, 1)),
			"---",
		}
	default:
		return []string{
			fmt.Sprintf("x: %.3f", s.uniform(-10, 10)),
			fmt.Sprintf("y: %.3f", s.uniform(-10, 10)),
			"---",
		}
	}
}

func (s *Synthetic) uniform(lo, hi float64) float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return lo + s.rng.Float64()*(hi-lo)
}

// ReadLine returns the next generated line, waiting up to timeout.
func (s *Synthetic) ReadLine(timeout time.Duration) (string, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case line := <-s.lines:
		return line, true, nil
	case <-s.done:
		return "", false, nil
	case <-timer.C:
		return "", false, nil
	}
}

// Exited never fires while the source is open; a synthetic producer
// cannot crash the way a child process can.
func (s *Synthetic) Exited() <-chan struct{} {
	return s.exited
}

// ExitCode reports no exit for a synthetic source.
func (s *Synthetic) ExitCode() (int, bool) {
	return 0, false
}

// Diagnostics returns an empty string; there is no stderr to capture.
func (s *Synthetic) Diagnostics() string {
	return ""
}

// Close stops the generator. Safe to call multiple times.
func (s *Synthetic) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}
