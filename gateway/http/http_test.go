package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NMBawiskar/ros-data-publisher/gateway"
	"github.com/NMBawiskar/ros-data-publisher/health"
	"github.com/NMBawiskar/ros-data-publisher/pipeline"
	"github.com/NMBawiskar/ros-data-publisher/producer"
)

func testCatalog(t *testing.T) *gateway.Catalog {
	t.Helper()
	catalog, err := gateway.NewCatalog([]gateway.Topic{
		{Name: "/robot/position", Type: "geometry_msgs/Point"},
		{Name: "/robot/velocity", Type: "geometry_msgs/Twist"},
		{Name: "/sensor/gps", Type: "sensor_msgs/NavSatFix"},
	})
	require.NoError(t, err)
	return catalog
}

func testServer(t *testing.T, config Config) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := NewServer(config, Deps{
		Catalog: testCatalog(t),
		Factory: &producer.Factory{
			Mode:            producer.ModeSynthetic,
			PublishInterval: 10 * time.Millisecond,
		},
		Monitor: health.NewMonitor(),
	})
	require.NoError(t, err)
	require.NoError(t, srv.Initialize())

	ts := httptest.NewServer(srv.corsMiddleware(srv.mux))
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(Config{}, Deps{})
	assert.Error(t, err)

	_, err = NewServer(Config{Port: 70000}, Deps{
		Catalog: testCatalog(t),
		Factory: &producer.Factory{Mode: producer.ModeSynthetic},
	})
	assert.Error(t, err)
}

func TestHandleIndex(t *testing.T) {
	_, ts := testServer(t, Config{})

	res, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/html")
}

func TestHandleTopics(t *testing.T) {
	_, ts := testServer(t, Config{})

	res, err := http.Get(ts.URL + "/topics")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var topics []gateway.Topic
	require.NoError(t, json.NewDecoder(res.Body).Decode(&topics))
	require.Len(t, topics, 3)
	assert.Equal(t, "/robot/position", topics[0].Name)
	assert.Equal(t, "geometry_msgs/Point", topics[0].Type)
}

func TestHandleStream_UnknownTopic(t *testing.T) {
	_, ts := testServer(t, Config{})

	res, err := http.Get(ts.URL + "/stream/no/such/topic")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "Topic not found", body["error"])
}

func TestHandleStream_SSE(t *testing.T) {
	_, ts := testServer(t, Config{
		ReadTimeout:   10 * time.Millisecond,
		CycleInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/stream/robot/position", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", res.Header.Get("Cache-Control"))
	assert.Equal(t, "no", res.Header.Get("X-Accel-Buffering"))

	scanner := bufio.NewScanner(res.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev pipeline.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		assert.Equal(t, "/robot/position", ev.Topic)
		assert.NotEmpty(t, ev.Timestamp)
		assert.Contains(t, ev.Data, "x")
		return
	}
	t.Fatal("no SSE event received")
}

func TestHandleWebSocket(t *testing.T) {
	_, ts := testServer(t, Config{
		ReadTimeout:   10 * time.Millisecond,
		CycleInterval: 10 * time.Millisecond,
	})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/sensor/gps"
	conn, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer res.Body.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var ev pipeline.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "/sensor/gps", ev.Topic)
	assert.Empty(t, ev.Error)
	assert.Contains(t, ev.Data, "x")
}

func TestHandleWebSocket_UnknownTopic(t *testing.T) {
	_, ts := testServer(t, Config{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/no/such/topic"
	conn, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, res)
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestHandleHealthz(t *testing.T) {
	srv, ts := testServer(t, Config{})
	srv.monitor.UpdateHealthy("stream", "ok")

	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)

	var status health.Status
	require.NoError(t, json.NewDecoder(res.Body).Decode(&status))
	assert.True(t, status.Healthy)

	srv.monitor.UpdateUnhealthy("stream", "producer exited")
	res2, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, res2.StatusCode)
}

func TestCORS(t *testing.T) {
	_, ts := testServer(t, Config{CORSOrigins: []string{"https://viewer.example.com"}})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/topics", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://viewer.example.com")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, "https://viewer.example.com", res.Header.Get("Access-Control-Allow-Origin"))

	// Disallowed origins get no CORS headers.
	req2, err := http.NewRequest(http.MethodGet, ts.URL+"/topics", nil)
	require.NoError(t, err)
	req2.Header.Set("Origin", "https://evil.example.com")
	res2, err := http.DefaultClient.Do(req2)
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Empty(t, res2.Header.Get("Access-Control-Allow-Origin"))
}

func TestLifecycle(t *testing.T) {
	srv, err := NewServer(Config{
		Host:          "127.0.0.1",
		Port:          0,
		ReadTimeout:   10 * time.Millisecond,
		CycleInterval: 10 * time.Millisecond,
	}, Deps{
		Catalog: testCatalog(t),
		Factory: &producer.Factory{Mode: producer.ModeSynthetic},
		Monitor: health.NewMonitor(),
	})
	require.NoError(t, err)
	require.NoError(t, srv.Initialize())
	require.NoError(t, srv.Start(context.Background()))

	assert.Error(t, srv.Start(context.Background()), "double start must fail")
	assert.True(t, srv.Health().Healthy)

	res, err := http.Get("http://" + srv.Addr() + "/topics")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	require.NoError(t, srv.Stop(time.Second))
	assert.NoError(t, srv.Stop(time.Second), "stop is idempotent")
	assert.False(t, srv.Health().Healthy)
}

func TestMeta(t *testing.T) {
	srv, _ := testServer(t, Config{})
	meta := srv.Meta()
	assert.Equal(t, "http-gateway", meta.Name)
	assert.Equal(t, "gateway", meta.Type)
}
