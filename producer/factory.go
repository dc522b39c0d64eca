package producer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/NMBawiskar/ros-data-publisher/errors"
	"github.com/NMBawiskar/ros-data-publisher/metric"
	"github.com/NMBawiskar/ros-data-publisher/pipeline"
	"github.com/NMBawiskar/ros-data-publisher/proc"
)

// Mode selects how telemetry for a topic is produced.
type Mode string

const (
	// ModeLive spawns one echo child process per stream.
	ModeLive Mode = "live"
	// ModeSynthetic generates random frames in-process.
	ModeSynthetic Mode = "synthetic"
)

// Factory builds a telemetry source per stream according to the
// configured mode. One source is created per subscriber; sources are
// never shared.
type Factory struct {
	Mode    Mode
	Command []string

	SpawnGrace      time.Duration
	TermWait        time.Duration
	PublishInterval time.Duration

	Logger   *slog.Logger
	Registry *metric.MetricsRegistry
}

// NewSource creates a producer for one stream of the given topic.
func (f *Factory) NewSource(topic, msgType string) (pipeline.Source, error) {
	switch f.Mode {
	case ModeSynthetic:
		if err := ValidateTopic(topic); err != nil {
			return nil, err
		}
		var opts []SyntheticOption
		if f.PublishInterval > 0 {
			opts = append(opts, WithPublishInterval(f.PublishInterval))
		}
		return NewSynthetic(topic, msgType, opts...), nil

	case ModeLive, "":
		argv, err := ResolveCommand(f.Command, topic)
		if err != nil {
			return nil, err
		}
		var opts []proc.Option
		if f.SpawnGrace > 0 {
			opts = append(opts, proc.WithSpawnGrace(f.SpawnGrace))
		}
		if f.TermWait > 0 {
			opts = append(opts, proc.WithTermWait(f.TermWait))
		}
		return NewLive(argv, f.Logger, f.Registry, opts...)

	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("unknown producer mode %q", f.Mode),
			"Factory", "NewSource", "producer mode validation failed")
	}
}
