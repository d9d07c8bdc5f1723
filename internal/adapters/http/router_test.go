package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Coordinator/internal/app/orch"
	"github.com/dkeye/Coordinator/internal/auth"
	"github.com/dkeye/Coordinator/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newRouter(t *testing.T, mutate ...func(*config.Config)) (*gin.Engine, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Mode = "test"
	cfg.Access.BcryptCost = bcrypt.MinCost
	for _, m := range mutate {
		m(cfg)
	}
	gin.SetMode(gin.TestMode)
	return SetupRouter(t.Context(), cfg, orch.New(cfg)), cfg
}

func post(t *testing.T, r http.Handler, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newRouter(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "coordinator_")
}

func TestReadyzDuringShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = "test"
	ctx, cancel := context.WithCancel(context.Background())
	r := SetupRouter(ctx, cfg, orch.New(cfg))
	cancel()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRPCOverHTTP(t *testing.T) {
	r, _ := newRouter(t)

	w := post(t, r, "/rpc/CreateRoom", `{"room_id":"r1"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":{"room_id":"r1","created":true}}`, w.Body.String())

	w = post(t, r, "/rpc/JoinRoom", `{"room_id":"r1","peer_id":"a"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = post(t, r, "/rpc/IsRoomLocked", `{"room_id":"r1"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result":{"is_locked":false}}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rooms/r1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var snap struct {
		ID           string `json:"room_id"`
		Participants []struct {
			PeerID    string `json:"peer_id"`
			IsCreator bool   `json:"is_creator"`
		} `json:"participants"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "r1", snap.ID)
	require.Len(t, snap.Participants, 1)
	assert.True(t, snap.Participants[0].IsCreator)
}

func TestRPCErrorsOverHTTP(t *testing.T) {
	r, _ := newRouter(t)

	cases := []struct {
		path, body string
		status     int
		kind       string
	}{
		{"/rpc/GetRoom", `{"room_id":"missing"}`, http.StatusNotFound, "NotFound"},
		{"/rpc/NoSuchMethod", `{}`, http.StatusNotFound, "NotFound"},
		{"/rpc/GetRoom", `{}`, http.StatusBadRequest, "InvalidArgument"},
		{"/rpc/GetRoom", `not json`, http.StatusBadRequest, "InvalidArgument"},
	}
	for _, tc := range cases {
		w := post(t, r, tc.path, tc.body, "")
		assert.Equal(t, tc.status, w.Code, tc.path)

		var body struct {
			Error struct {
				Kind string `json:"kind"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tc.kind, body.Error.Kind, "%s %s", tc.path, tc.body)
	}
}

func TestMethodListing(t *testing.T) {
	r, _ := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rpc", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Methods []string `json:"methods"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Methods, "VerifyRoomAccess")
}

func TestServiceAuth(t *testing.T) {
	r, cfg := newRouter(t, func(c *config.Config) {
		c.Auth.ServiceSecret = "s3cret"
		c.Auth.Issuer = "gateway"
	})

	w := post(t, r, "/rpc/ListRooms", `{}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(t, r, "/rpc/ListRooms", `{}`, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	forged, err := auth.New("other", cfg.Auth.Issuer).Sign("media", time.Minute)
	require.NoError(t, err)
	w = post(t, r, "/rpc/ListRooms", `{}`, forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, err := auth.New(cfg.Auth.ServiceSecret, cfg.Auth.Issuer).Sign("media", time.Minute)
	require.NoError(t, err)
	w = post(t, r, "/rpc/ListRooms", `{}`, tok)
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms?access_token="+tok, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Health stays open.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

type wsResponse struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Kind   string `json:"kind"`
		Reason string `json:"reason"`
	} `json:"error"`
}

func TestRPCOverWebSocket(t *testing.T) {
	r, _ := newRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/rpc/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer ws.Close()

	roundTrip := func(id int, method, params string) wsResponse {
		t.Helper()
		msg := `{"id":` + strconv.Itoa(id) + `,"method":"` + method + `","params":` + params + `}`
		require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(msg)))
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
		var out wsResponse
		require.NoError(t, ws.ReadJSON(&out))
		return out
	}

	out := roundTrip(1, "Ping", `null`)
	assert.JSONEq(t, `1`, string(out.ID))
	assert.JSONEq(t, `"pong"`, string(out.Result))

	out = roundTrip(2, "CreateRoom", `{"room_id":"r1"}`)
	assert.Nil(t, out.Error)
	assert.JSONEq(t, `{"room_id":"r1","created":true}`, string(out.Result))

	out = roundTrip(3, "JoinRoom", `{"room_id":"r1","peer_id":"a","connection_id":"c1"}`)
	require.Nil(t, out.Error)

	out = roundTrip(4, "LockRoom", `{"room_id":"r1","requester_peer_id":"a","secret":"pw"}`)
	require.Nil(t, out.Error)

	out = roundTrip(5, "JoinRoom", `{"room_id":"r1","peer_id":"b"}`)
	assert.JSONEq(t, `5`, string(out.ID))
	require.NotNil(t, out.Error)
	assert.Equal(t, "AccessDenied", out.Error.Kind)
	assert.Equal(t, "INVALID_SECRET", out.Error.Reason)

	out = roundTrip(6, "Nope", `{}`)
	require.NotNil(t, out.Error)
	assert.Equal(t, "NotFound", out.Error.Kind)
}
