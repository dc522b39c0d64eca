// Package pipeline composes the producer source, echo parser, and
// freshness coalescer into a continuous stream of decoded topic records.
//
// One Pipeline serves one consumer and owns one producer source for its
// whole life. The run loop polls the source in bounded read cycles: every
// line obtained within the cycle's read window is fed to the parser,
// completed frames land in a single-slot latest-value mailbox, and at most
// one event is emitted per cycle. Producer bursts beyond the cycle rate
// are therefore coalesced — the consumer always sees the most recent
// observation, never a growing backlog.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/NMBawiskar/ros-data-publisher/echo"
	"github.com/NMBawiskar/ros-data-publisher/errors"
	"github.com/NMBawiskar/ros-data-publisher/pkg/mailbox"
	"github.com/NMBawiskar/ros-data-publisher/rosmsg"
)

// State represents the lifecycle state of a stream pipeline
type State int

const (
	// StateInitializing indicates the producer has not started yet
	StateInitializing State = iota
	// StateActive indicates the read cycle loop is running
	StateActive
	// StateDraining indicates teardown has begun
	StateDraining
	// StateClosed indicates the pipeline has terminated; it is not restartable
	StateClosed
	// StateErrored indicates the pipeline failed before or during streaming
	StateErrored
)

// String returns a string representation of the pipeline state
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateActive:
		return "active"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

const (
	// defaultReadTimeout bounds a single line read within a cycle.
	defaultReadTimeout = 50 * time.Millisecond

	// defaultCycleInterval caps the emission rate independent of
	// producer burstiness.
	defaultCycleInterval = 50 * time.Millisecond
)

// Config holds configuration for a stream pipeline.
type Config struct {
	// Topic is the stream's topic name, echoed in every event.
	Topic string

	// ReadTimeout bounds each line read; zero applies the default.
	ReadTimeout time.Duration

	// CycleInterval paces read cycles; zero applies the default.
	CycleInterval time.Duration
}

// Deps holds runtime dependencies for a stream pipeline.
type Deps struct {
	Source  Source
	Logger  *slog.Logger
	Metrics *Metrics // optional
}

// Pipeline turns one producer source into a stream of events. It is a
// single-owner object: exactly one goroutine runs it and exactly one
// consumer receives from it, and it cannot be restarted after closing.
type Pipeline struct {
	id            string
	topic         string
	readTimeout   time.Duration
	cycleInterval time.Duration

	source  Source
	parser  *echo.Parser
	pending *mailbox.Mailbox[rosmsg.Record]
	limiter *rate.Limiter
	logger  *slog.Logger
	metrics *Metrics

	state         atomic.Int32
	started       atomic.Bool
	prevMalformed uint64
}

// New creates a pipeline for the given topic and source.
func New(cfg Config, deps Deps) (*Pipeline, error) {
	if cfg.Topic == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Pipeline", "New", "topic validation")
	}
	if deps.Source == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Pipeline", "New", "source validation")
	}

	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	cycleInterval := cfg.CycleInterval
	if cycleInterval <= 0 {
		cycleInterval = defaultCycleInterval
	}

	id := uuid.NewString()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "pipeline", "stream_id", id, "topic", cfg.Topic)

	p := &Pipeline{
		id:            id,
		topic:         cfg.Topic,
		readTimeout:   readTimeout,
		cycleInterval: cycleInterval,
		source:        deps.Source,
		parser:        echo.NewParser(),
		limiter:       rate.NewLimiter(rate.Every(cycleInterval), 1),
		logger:        logger,
		metrics:       deps.Metrics,
	}

	p.pending = mailbox.New(mailbox.WithDropCallback(func(rosmsg.Record) {
		if p.metrics != nil {
			p.metrics.framesDropped.WithLabelValues(p.topic).Inc()
		}
	}))

	return p, nil
}

// ID returns the pipeline's unique stream identity.
func (p *Pipeline) ID() string {
	return p.id
}

// State returns the pipeline's current lifecycle state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Events starts the pipeline and returns its event stream. The stream is
// lazy, infinite, and non-restartable: it ends only when ctx is cancelled
// or the producer fails, and the channel is closed once the producer has
// been torn down. Calling Events more than once returns a closed channel.
func (p *Pipeline) Events(ctx context.Context) <-chan Event {
	out := make(chan Event)

	if !p.started.CompareAndSwap(false, true) {
		p.logger.Warn("pipeline restarted after close; refusing")
		close(out)
		return out
	}

	go p.run(ctx, out)
	return out
}

// run is the pipeline's single thread of control. Teardown is guaranteed
// on every exit path: the producer is terminated and reaped before the
// event channel closes.
func (p *Pipeline) run(ctx context.Context, out chan<- Event) {
	defer close(out)

	if p.metrics != nil {
		p.metrics.activeStreams.Inc()
		defer p.metrics.activeStreams.Dec()
	}

	defer func() {
		if err := p.source.Close(); err != nil {
			p.logger.Warn("producer teardown reported error", "error", err)
		}
		// Errored is terminal; Closed only replaces clean shutdown states.
		if p.State() != StateErrored {
			p.state.Store(int32(StateClosed))
		}
		p.logger.Debug("pipeline closed")
	}()

	p.state.Store(int32(StateInitializing))
	if err := p.source.Start(); err != nil {
		p.state.Store(int32(StateErrored))
		if p.metrics != nil {
			p.metrics.spawnFailures.WithLabelValues(p.topic).Inc()
			p.metrics.errorEvents.WithLabelValues(p.topic).Inc()
		}
		p.logger.Error("producer failed to start", "error", err)
		p.emit(ctx, out, errorEvent(p.topic, err.Error()))
		return
	}

	p.state.Store(int32(StateActive))
	p.logger.Debug("pipeline active",
		"read_timeout", p.readTimeout, "cycle_interval", p.cycleInterval)

	for {
		select {
		case <-ctx.Done():
			p.state.Store(int32(StateDraining))
			return
		default:
		}

		cycleStart := time.Now()

		// Liveness first: a dead producer ends the stream with one
		// error event carrying its diagnostics.
		select {
		case <-p.source.Exited():
			p.state.Store(int32(StateDraining))
			p.reportExit(ctx, out)
			p.state.Store(int32(StateErrored))
			return
		default:
		}

		p.readBurst()

		if rec, ok := p.pending.Take(); ok {
			if !p.emit(ctx, out, dataEvent(p.topic, rec)) {
				p.state.Store(int32(StateDraining))
				return
			}
			if p.metrics != nil {
				p.metrics.eventsEmitted.WithLabelValues(p.topic).Inc()
			}
		}

		if p.metrics != nil {
			p.metrics.cycleDuration.Observe(time.Since(cycleStart).Seconds())
		}

		if err := p.limiter.Wait(ctx); err != nil {
			p.state.Store(int32(StateDraining))
			return
		}
	}
}

// readBurst reads lines until one read times out or the stream ends,
// feeding each line to the parser and completed frames to the mailbox.
func (p *Pipeline) readBurst() {
	for {
		line, ok, err := p.source.ReadLine(p.readTimeout)
		if err != nil {
			// End-of-stream: the exit surfaces on the next liveness check.
			return
		}
		if !ok {
			return
		}

		if p.metrics != nil {
			p.metrics.linesReceived.WithLabelValues(p.topic).Inc()
		}

		if rec, done := p.parser.Feed(line); done {
			p.pending.Put(rec)
			if p.metrics != nil {
				p.metrics.framesCompleted.WithLabelValues(p.topic).Inc()
			}
		}
	}
}

// reportExit emits the single mid-stream failure event, draining the
// producer's diagnostic output into the report.
func (p *Pipeline) reportExit(ctx context.Context, out chan<- Event) {
	code, _ := p.source.ExitCode()
	message := fmt.Sprintf("%s: exit code %d", errors.ErrProducerExited, code)
	if diag := p.source.Diagnostics(); diag != "" {
		message = fmt.Sprintf("%s: %s", message, diag)
	}

	if p.metrics != nil {
		p.metrics.producerExits.WithLabelValues(p.topic).Inc()
		p.metrics.errorEvents.WithLabelValues(p.topic).Inc()
	}
	p.logger.Error("producer exited mid-stream", "exit_code", code)
	p.emit(ctx, out, errorEvent(p.topic, message))
}

// emit delivers one event unless the consumer is gone.
func (p *Pipeline) emit(ctx context.Context, out chan<- Event, ev Event) bool {
	// Flush malformed-line counts accumulated since the last emission.
	if p.metrics != nil {
		if malformed := p.parser.MalformedLines(); malformed > p.prevMalformed {
			p.metrics.malformedLines.WithLabelValues(p.topic).Add(float64(malformed - p.prevMalformed))
			p.prevMalformed = malformed
		}
	}

	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
