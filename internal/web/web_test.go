package web_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkov/pixelwall/internal/factory"
	"github.com/mkov/pixelwall/internal/model"
	"github.com/mkov/pixelwall/internal/testutil"
	"github.com/mkov/pixelwall/internal/web"
	"github.com/mkov/pixelwall/internal/ws"
)

func newTestServer(t *testing.T) (*httptest.Server, *factory.App) {
	t.Helper()

	app, err := factory.New(factory.Config{Logger: testutil.NopLogger()})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, app.Close())
	})

	router := web.NewRouter(web.RouterConfig{
		Logger:  testutil.NopLogger(),
		Handler: app.Handler,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, app
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestVersion(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/version")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Version string `json:"version"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, web.Version, body.Version)
}

func TestWebsocketUpgradeAndInitialState(t *testing.T) {
	server, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	defer func() { _ = resp.Body.Close() }()

	// The server pushes the full canvas first
	var env ws.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	require.Equal(t, ws.TypeCanvas, env.Type)

	var grid model.Grid
	require.NoError(t, json.Unmarshal(env.Payload, &grid))
	assert.True(t, grid.WellFormed())

	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, ws.TypeChatHistory, env.Type)

	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, ws.TypeLeaderboard, env.Type)
}

func TestWebsocketRegisterOverWire(t *testing.T) {
	server, app := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	defer func() { _ = resp.Body.Close() }()

	// Drain the initial state push
	var env ws.Envelope
	for _, want := range []string{ws.TypeCanvas, ws.TypeChatHistory, ws.TypeLeaderboard} {
		require.NoError(t, conn.ReadJSON(&env))
		require.Equal(t, want, env.Type)
	}

	payload, err := json.Marshal(map[string]string{
		"username": "alice", "password": "pw1", "visitorId": "fp1",
	})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(ws.Envelope{Type: ws.TypeRegister, Payload: payload}))

	require.NoError(t, conn.ReadJSON(&env))
	require.Equal(t, ws.TypeRegistered, env.Type)

	_, err = app.Accounts.Authenticate("alice", "pw1", "fp1")
	assert.NoError(t, err)
}

func TestUnknownRouteWithoutStaticDir(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/nothing-here")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
