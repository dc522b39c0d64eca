package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NMBawiskar/ros-data-publisher/errors"
)

func TestNewCatalog(t *testing.T) {
	catalog, err := NewCatalog([]Topic{
		{Name: "/robot/position", Type: "geometry_msgs/Point"},
		{Name: "/sensor/gps", Type: "sensor_msgs/NavSatFix"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Len())

	topic, ok := catalog.Lookup("/robot/position")
	require.True(t, ok)
	assert.Equal(t, "geometry_msgs/Point", topic.Type)

	_, ok = catalog.Lookup("/unknown")
	assert.False(t, ok)
}

func TestNewCatalog_PreservesOrder(t *testing.T) {
	catalog, err := NewCatalog([]Topic{
		{Name: "/c", Type: "t"},
		{Name: "/a", Type: "t"},
		{Name: "/b", Type: "t"},
	})
	require.NoError(t, err)

	list := catalog.List()
	require.Len(t, list, 3)
	assert.Equal(t, "/c", list[0].Name)
	assert.Equal(t, "/a", list[1].Name)
	assert.Equal(t, "/b", list[2].Name)

	// The returned slice is a copy.
	list[0].Name = "/mutated"
	assert.Equal(t, "/c", catalog.List()[0].Name)
}

func TestNewCatalog_Invalid(t *testing.T) {
	cases := map[string][]Topic{
		"empty":          {},
		"malformed name": {{Name: "robot/position", Type: "t"}},
		"missing type":   {{Name: "/robot/position"}},
		"duplicate": {
			{Name: "/robot/position", Type: "t"},
			{Name: "/robot/position", Type: "t"},
		},
	}
	for name, topics := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewCatalog(topics)
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}
