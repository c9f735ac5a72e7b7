package transport_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/cookiejar-app/cookiejar/internal/transport"
)

func dialFeed(t *testing.T, srv *httptest.Server, clientID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events?client_id=" + clientID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *transport.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d clients, have %d", n, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastSkipsOriginator(t *testing.T) {
	hub := transport.NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	origin := dialFeed(t, srv, "dashboard")
	other := dialFeed(t, srv, "widget")
	waitForClients(t, hub, 2)

	hub.Broadcast(transport.EventDataChanged, "dashboard")

	require.NoError(t, other.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := other.ReadMessage()
	require.NoError(t, err)

	var event transport.Event
	require.NoError(t, json.Unmarshal(msg, &event))
	require.Equal(t, transport.EventDataChanged, event.Type)
	require.NotZero(t, event.Timestamp)

	// The originating surface hears nothing.
	require.NoError(t, origin.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = origin.ReadMessage()
	require.Error(t, err)
}

func TestHub_BroadcastWithoutOriginReachesEveryone(t *testing.T) {
	hub := transport.NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	first := dialFeed(t, srv, "a")
	second := dialFeed(t, srv, "b")
	waitForClients(t, hub, 2)

	hub.Broadcast(transport.EventDataChanged, "")

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		require.Contains(t, string(msg), transport.EventDataChanged)
	}
}

func TestHub_DisconnectDropsClient(t *testing.T) {
	hub := transport.NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dialFeed(t, srv, "gone")
	waitForClients(t, hub, 1)

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client was not dropped after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
