package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stamp_card/internal/model"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) model.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev model.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	return ev
}

func waitForCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Count() == want }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_GreetsOnConnect(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dial(t, server)

	ev := readEvent(t, conn)
	assert.Equal(t, model.EventTypeConnected, ev.Type)
	assert.NotEmpty(t, ev.Message)
	waitForCount(t, hub, 1)
}

func TestHub_BroadcastReachesEveryObserver(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	a := dial(t, server)
	b := dial(t, server)
	readEvent(t, a)
	readEvent(t, b)
	waitForCount(t, hub, 2)

	hub.Broadcast(model.ClientsChanged)
	hub.Broadcast(model.PrizesChanged)

	for _, conn := range []*websocket.Conn{a, b} {
		assert.Equal(t, "clientsChanged", readEvent(t, conn).Type)
		assert.Equal(t, "prizesChanged", readEvent(t, conn).Type)
	}
}

func TestHub_RelaysToOthersOnly(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	sender := dial(t, server)
	other := dial(t, server)
	readEvent(t, sender)
	readEvent(t, other)
	waitForCount(t, hub, 2)

	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte("hello there")))

	ev := readEvent(t, other)
	assert.Equal(t, model.EventTypeMessage, ev.Type)
	assert.Equal(t, "hello there", ev.Payload)

	hub.Broadcast(model.ClientsChanged)
	assert.Equal(t, "clientsChanged", readEvent(t, sender).Type, "sender gets no echo of its own message")
}

func TestHub_DisconnectedObserverIsSkipped(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	gone := dial(t, server)
	stay := dial(t, server)
	readEvent(t, gone)
	readEvent(t, stay)
	waitForCount(t, hub, 2)

	require.NoError(t, gone.Close())
	waitForCount(t, hub, 1)

	assert.NotPanics(t, func() { hub.Broadcast(model.PrizesChanged) })
	assert.Equal(t, "prizesChanged", readEvent(t, stay).Type)
}

func TestHub_BroadcastWithoutObservers(t *testing.T) {
	hub := NewHub()
	assert.NotPanics(t, func() { hub.Broadcast(model.ClientsChanged) })
	assert.Equal(t, 0, hub.Count())
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dial(t, server)
	readEvent(t, conn)
	waitForCount(t, hub, 1)

	hub.Close()

	assert.Equal(t, 0, hub.Count())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.NotPanics(t, func() { hub.Broadcast(model.ClientsChanged) })
}
