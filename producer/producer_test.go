package producer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NMBawiskar/ros-data-publisher/errors"
	"github.com/NMBawiskar/ros-data-publisher/pipeline"
	"github.com/NMBawiskar/ros-data-publisher/rosmsg"
)

func TestValidateTopic(t *testing.T) {
	valid := []string{"/robot/position", "/sensor/gps", "/a", "/ns_1/sub_2/leaf"}
	for _, topic := range valid {
		assert.NoError(t, ValidateTopic(topic), topic)
	}

	invalid := []string{"", "robot/position", "/", "//double", "/bad-dash", "/1leading", "/trailing/"}
	for _, topic := range invalid {
		err := ValidateTopic(topic)
		require.Error(t, err, topic)
		assert.True(t, errors.IsInvalid(err), topic)
	}
}

func TestResolveCommand(t *testing.T) {
	template := []string{"ros2", "topic", "echo"}
	argv, err := ResolveCommand(template, "/robot/position")
	require.NoError(t, err)
	assert.Equal(t, []string{"ros2", "topic", "echo", "/robot/position"}, argv)

	// The template is not mutated.
	assert.Equal(t, []string{"ros2", "topic", "echo"}, template)

	_, err = ResolveCommand(nil, "/robot/position")
	assert.Error(t, err)

	_, err = ResolveCommand(template, "not-a-topic")
	assert.Error(t, err)
}

func TestSynthetic_EmitsParsableFrames(t *testing.T) {
	for _, msgType := range []string{
		"geometry_msgs/Point",
		"geometry_msgs/Twist",
		"sensor_msgs/NavSatFix",
		"custom_msgs/Unknown",
	} {
		t.Run(msgType, func(t *testing.T) {
			src := NewSynthetic("/robot/position", msgType,
				WithPublishInterval(10*time.Millisecond), WithSeed(42))
			require.NoError(t, src.Start())
			defer func() { _ = src.Close() }()

			lines := collectFrame(t, src)
			require.Equal(t, "---", lines[len(lines)-1])
			for _, line := range lines[:len(lines)-1] {
				assert.Contains(t, line, ":")
			}
		})
	}
}

func TestSynthetic_TwistShape(t *testing.T) {
	src := NewSynthetic("/robot/velocity", "geometry_msgs/Twist", WithSeed(7))
	lines := src.frameLines()

	require.Equal(t, "---", lines[len(lines)-1])
	assert.Equal(t, "linear:", lines[0])
	assert.Equal(t, "angular:", lines[4])
	assert.True(t, strings.HasPrefix(lines[1], "  x: "))
}

func TestSynthetic_DrivesPipeline(t *testing.T) {
	src := NewSynthetic("/sensor/gps", "sensor_msgs/NavSatFix",
		WithPublishInterval(10*time.Millisecond), WithSeed(1))

	p, err := pipeline.New(pipeline.Config{
		Topic:         "/sensor/gps",
		ReadTimeout:   10 * time.Millisecond,
		CycleInterval: 10 * time.Millisecond,
	}, pipeline.Deps{Source: src})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	select {
	case ev := <-p.Events(ctx):
		assert.Equal(t, "/sensor/gps", ev.Topic)
		assert.Empty(t, ev.Error)
		assert.IsType(t, rosmsg.Value{}, ev.Data["x"])
	case <-time.After(2 * time.Second):
		t.Fatal("no event from synthetic source")
	}
}

func TestSynthetic_CloseIdempotent(t *testing.T) {
	src := NewSynthetic("/robot/position", "geometry_msgs/Point")
	require.NoError(t, src.Start())
	assert.NoError(t, src.Close())
	assert.NoError(t, src.Close())

	_, ok, err := src.ReadLine(10 * time.Millisecond)
	assert.False(t, ok)
	assert.NoError(t, err)

	_, exited := src.ExitCode()
	assert.False(t, exited, "synthetic sources do not exit")
}

func TestFactory_ModeSelection(t *testing.T) {
	synthetic := &Factory{Mode: ModeSynthetic}
	src, err := synthetic.NewSource("/robot/position", "geometry_msgs/Point")
	require.NoError(t, err)
	assert.IsType(t, &Synthetic{}, src)
	_ = src.Close()

	live := &Factory{Mode: ModeLive, Command: []string{"ros2", "topic", "echo"}}
	src, err = live.NewSource("/robot/position", "geometry_msgs/Point")
	require.NoError(t, err)
	assert.IsType(t, &Live{}, src)
	_ = src.Close()

	_, err = (&Factory{Mode: "carrier-pigeon"}).NewSource("/robot/position", "geometry_msgs/Point")
	assert.Error(t, err)

	_, err = (&Factory{Mode: ModeLive}).NewSource("/robot/position", "geometry_msgs/Point")
	assert.Error(t, err, "live mode requires a command template")
}

func TestLive_RunsRealProcess(t *testing.T) {
	live, err := NewLive([]string{"sh", "-c", `printf 'x: 1\ny: 2\n---\n'; sleep 5`}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, live.Start())
	defer func() { _ = live.Close() }()

	lines := collectFrame(t, live)
	assert.Equal(t, []string{"x: 1", "y: 2", "---"}, lines)

	assert.NoError(t, live.Close())
	assert.NoError(t, live.Close())
}

func TestLive_CloseWithoutStart(t *testing.T) {
	live, err := NewLive([]string{"sh", "-c", "true"}, nil, nil)
	require.NoError(t, err)
	assert.NoError(t, live.Close())
}

func collectFrame(t *testing.T, src pipeline.Source) []string {
	t.Helper()
	var lines []string
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		line, ok, err := src.ReadLine(50 * time.Millisecond)
		require.NoError(t, err)
		if !ok {
			continue
		}
		lines = append(lines, line)
		if line == "---" {
			return lines
		}
	}
	t.Fatal("no complete frame before deadline")
	return nil
}
