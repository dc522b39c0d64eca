package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NMBawiskar/ros-data-publisher/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "synthetic", cfg.Producer.Mode)
	assert.Len(t, cfg.Topics, 3)
	assert.Equal(t, "/robot/position", cfg.Topics[0].Name)
	assert.Equal(t, "geometry_msgs/Point", cfg.Topics[0].Type)
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"server": {"port": 9001},
		"producer": {"mode": "live", "command": ["ros2", "topic", "echo"]},
		"topics": [{"name": "/odom", "type": "nav_msgs/Odometry"}]
	}`))
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "absent fields keep defaults")
	assert.Equal(t, "live", cfg.Producer.Mode)
	require.Len(t, cfg.Topics, 1)
	assert.Equal(t, "/odom", cfg.Topics[0].Name)
}

func TestParse_SchemaViolations(t *testing.T) {
	cases := map[string]string{
		"not json":        `{`,
		"unknown field":   `{"serverr": {}}`,
		"bad port type":   `{"server": {"port": "8000"}}`,
		"bad mode":        `{"producer": {"mode": "telepathy"}}`,
		"empty command":   `{"producer": {"mode": "live", "command": []}}`,
		"topic sans type": `{"topics": [{"name": "/odom"}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestValidate_SemanticErrors(t *testing.T) {
	t.Run("live mode requires command", func(t *testing.T) {
		cfg := Default()
		cfg.Producer.Mode = "live"
		cfg.Producer.Command = nil
		assert.Error(t, cfg.Validate())
	})

	t.Run("malformed topic name", func(t *testing.T) {
		cfg := Default()
		cfg.Topics[0].Name = "no-leading-slash"
		assert.Error(t, cfg.Validate())
	})

	t.Run("duplicate topic", func(t *testing.T) {
		cfg := Default()
		cfg.Topics = append(cfg.Topics, cfg.Topics[0])
		assert.Error(t, cfg.Validate())
	})

	t.Run("metrics port collides with server port", func(t *testing.T) {
		cfg := Default()
		cfg.Server.MetricsPort = cfg.Server.Port
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty topics", func(t *testing.T) {
		cfg := Default()
		cfg.Topics = nil
		assert.Error(t, cfg.Validate())
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server": {"port": 8080}}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)

	_, err = Load(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestSafeConfig(t *testing.T) {
	sc := NewSafeConfig(Default())

	// Get returns a copy; mutating it does not affect the stored config.
	snapshot := sc.Get()
	snapshot.Server.Port = 1
	assert.Equal(t, 8000, sc.Get().Server.Port)

	updated := Default()
	updated.Server.Port = 9000
	require.NoError(t, sc.Update(updated))
	assert.Equal(t, 9000, sc.Get().Server.Port)

	bad := Default()
	bad.Server.Port = -1
	assert.Error(t, sc.Update(bad))
	assert.Equal(t, 9000, sc.Get().Server.Port, "failed update must not apply")

	assert.Error(t, sc.Update(nil))
}

func TestStreamConfig_Durations(t *testing.T) {
	s := StreamConfig{ReadTimeoutMS: 50, CycleIntervalMS: 100}
	assert.Equal(t, int64(50), s.ReadTimeout().Milliseconds())
	assert.Equal(t, int64(100), s.CycleInterval().Milliseconds())
}
