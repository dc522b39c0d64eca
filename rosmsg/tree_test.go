package rosmsg

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var valueComparer = cmp.Comparer(func(a, b Value) bool { return a == b })

func TestBuildTree_FlatKeys(t *testing.T) {
	flat := Flat{
		"x": Float(1.5),
		"y": Float(-2.0),
		"z": Integer(3),
	}

	tree := BuildTree(flat)

	want := Record{
		"x": Float(1.5),
		"y": Float(-2.0),
		"z": Integer(3),
	}
	assert.Empty(t, cmp.Diff(want, tree, valueComparer))
}

func TestBuildTree_NestedKeys(t *testing.T) {
	flat := Flat{
		"linear.x":  Float(0.5),
		"linear.y":  Float(0.0),
		"angular.z": Float(-0.1),
	}

	tree := BuildTree(flat)

	require.Contains(t, tree, "linear")
	linear, ok := tree["linear"].(Record)
	require.True(t, ok, "linear should be an interior node")
	assert.Equal(t, Float(0.5), linear["x"])
	assert.Equal(t, Float(0.0), linear["y"])

	angular, ok := tree["angular"].(Record)
	require.True(t, ok)
	assert.Equal(t, Float(-0.1), angular["z"])
}

func TestBuildTree_DeepPath(t *testing.T) {
	flat := Flat{"header.stamp.sec": Integer(1700000000)}

	tree := BuildTree(flat)

	header := tree["header"].(Record)
	stamp := header["stamp"].(Record)
	assert.Equal(t, Integer(1700000000), stamp["sec"])
}

func TestBuildTree_Empty(t *testing.T) {
	assert.Empty(t, BuildTree(Flat{}))
}

func TestRecord_MarshalJSON(t *testing.T) {
	tree := BuildTree(Flat{
		"position.x": Float(1.5),
		"position.y": Integer(2),
		"frame":      String("map"),
	})

	data, err := json.Marshal(tree)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	position := decoded["position"].(map[string]any)
	assert.Equal(t, 1.5, position["x"])
	assert.Equal(t, float64(2), position["y"])
	assert.Equal(t, "map", decoded["frame"])
}
