package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/codegen-suggest/internal/config"
)

type inbound struct {
	channelID string
	event     string
	data      json.RawMessage
}

// echoHandler replies to "ping" with "pong" and closes the channel on "bye"
type echoHandler struct {
	hub *Hub

	mu           sync.Mutex
	events       []inbound
	disconnected []string
}

func (e *echoHandler) HandleEvent(_ context.Context, channelID, event string, data json.RawMessage) {
	e.mu.Lock()
	e.events = append(e.events, inbound{channelID: channelID, event: event, data: data})
	e.mu.Unlock()

	switch event {
	case "ping":
		e.hub.Emit(channelID, "pong", map[string]string{"channel": channelID})
	case "bye":
		e.hub.Emit(channelID, "goodbye", nil)
		e.hub.Disconnect(channelID)
	}
}

func (e *echoHandler) HandleDisconnect(channelID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disconnected = append(e.disconnected, channelID)
}

func (e *echoHandler) received() []inbound {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]inbound(nil), e.events...)
}

func (e *echoHandler) disconnects() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.disconnected...)
}

func startHub(t *testing.T) (*Hub, *echoHandler, string) {
	t.Helper()
	hub := NewHub(config.DefaultServerConfig(), nil)
	handler := &echoHandler{hub: hub}
	hub.SetHandler(handler)

	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	return hub, handler, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readEnvelope(t *testing.T, ws *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env Envelope
	require.NoError(t, ws.ReadJSON(&env))
	return env
}

func TestHubRoundTrip(t *testing.T) {
	hub, handler, url := startHub(t)
	ws := dial(t, url)

	require.NoError(t, ws.WriteJSON(map[string]any{"event": "ping", "data": map[string]int{"n": 1}}))

	env := readEnvelope(t, ws)
	assert.Equal(t, "pong", env.Event)

	var data map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data["channel"])

	got := handler.received()
	require.Len(t, got, 1)
	assert.Equal(t, "ping", got[0].event)
	assert.Equal(t, data["channel"], got[0].channelID)
	assert.JSONEq(t, `{"n":1}`, string(got[0].data))
	assert.Equal(t, 1, hub.Count())
}

func TestHubMalformedEvent(t *testing.T) {
	_, handler, url := startHub(t)
	ws := dial(t, url)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("not json")))

	env := readEnvelope(t, ws)
	assert.Equal(t, config.EventError, env.Event)
	assert.JSONEq(t, `{"message":"`+config.MsgMalformedEvent+`"}`, string(env.Data))
	assert.Empty(t, handler.received())
}

func TestHubDisconnectFlushesQueuedEvents(t *testing.T) {
	hub, handler, url := startHub(t)
	ws := dial(t, url)

	require.NoError(t, ws.WriteJSON(map[string]string{"event": "bye"}))

	env := readEnvelope(t, ws)
	assert.Equal(t, "goodbye", env.Event)

	_, _, err := ws.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))

	require.Eventually(t, func() bool {
		return hub.Count() == 0 && len(handler.disconnects()) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestHubClientCloseNotifiesHandler(t *testing.T) {
	hub, handler, url := startHub(t)
	ws := dial(t, url)

	require.NoError(t, ws.WriteJSON(map[string]string{"event": "ping"}))
	env := readEnvelope(t, ws)
	var data map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &data))

	require.NoError(t, ws.Close())

	require.Eventually(t, func() bool {
		return hub.Count() == 0
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{data["channel"]}, handler.disconnects())
}

func TestHubCloseDisconnectsAll(t *testing.T) {
	hub, handler, url := startHub(t)
	dial(t, url)
	dial(t, url)

	require.Eventually(t, func() bool { return hub.Count() == 2 }, 2*time.Second, 5*time.Millisecond)

	hub.Close()

	require.Eventually(t, func() bool {
		return hub.Count() == 0 && len(handler.disconnects()) == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestEmitUnknownChannel(t *testing.T) {
	hub := NewHub(config.DefaultServerConfig(), nil)
	assert.NotPanics(t, func() {
		hub.Emit("missing", "queued", nil)
		hub.Disconnect("missing")
	})
}

func TestEmitDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(config.ServerConfig{SendBuffer: 1}, nil)
	conn := &Conn{
		ID:     "c1",
		sendCh: make(chan []byte, 1),
		done:   make(chan struct{}),
	}
	hub.conns[conn.ID] = conn

	hub.Emit("c1", "first", nil)
	hub.Emit("c1", "second", nil)

	require.Len(t, conn.sendCh, 1)
	var env Envelope
	require.NoError(t, json.Unmarshal(<-conn.sendCh, &env))
	assert.Equal(t, "first", env.Event)
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no restriction", nil, "http://evil.example", true},
		{"wildcard", []string{"*"}, "http://any.example", true},
		{"allowed origin", []string{"http://localhost:5173"}, "http://localhost:5173", true},
		{"rejected origin", []string{"http://localhost:5173"}, "http://evil.example", false},
		{"no origin header", []string{"http://localhost:5173"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, originChecker(tt.allowed)(r))
		})
	}
}
