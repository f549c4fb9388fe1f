package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialMonitor(t *testing.T, srv *Server) (*websocket.Conn, func()) {
	t.Helper()

	ts := httptest.NewServer(srv.Router())
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/v1/monitor"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}

	return conn, func() {
		conn.Close()
		ts.Close()
	}
}

func TestMonitor_InitialSnapshots(t *testing.T) {
	srv := newTestServer(t)
	createTestDrone(t, srv)

	conn, cleanup := dialMonitor(t, srv)
	defer cleanup()

	// Оба снимка приходят сразу после подключения, до первого тикера
	types := map[string]bool{}
	for i := 0; i < 2; i++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var frame struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(data, &frame))
		types[frame.Type] = true
	}

	assert.True(t, types["fleet"])
	assert.True(t, types["missions"])
}

func TestMonitor_FleetFrameCarriesRegion(t *testing.T) {
	srv := newTestServer(t)
	createTestDrone(t, srv)

	conn, cleanup := dialMonitor(t, srv)
	defer cleanup()

	for {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var frame struct {
			Type   string `json:"type"`
			Drones []struct {
				ID     string `json:"id"`
				Region string `json:"region"`
			} `json:"drones"`
		}
		require.NoError(t, json.Unmarshal(data, &frame))
		if frame.Type != "fleet" {
			continue
		}

		require.Len(t, frame.Drones, 1)
		assert.Len(t, frame.Drones[0].Region, srv.config.Survey.GeohashPrecision)
		return
	}
}

func TestMonitor_ImmediateDisconnect(t *testing.T) {
	srv := newTestServer(t)
	createTestDrone(t, srv)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/v1/monitor"

	// Клиент, рвущий соединение сразу после рукопожатия, не должен
	// ронять процесс: начальные снимки ставятся в очередь до pump'ов
	for i := 0; i < 20; i++ {
		conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		if resp != nil {
			resp.Body.Close()
		}
		conn.Close()
	}

	// Рассылка продолжает работать для нового клиента
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.NoError(t, err)
}
