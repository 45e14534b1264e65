package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"scholarfund-backend/internal/domain/notify"
	"scholarfund-backend/internal/hub"
	"scholarfund-backend/internal/infrastructure/token"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type server struct {
	hub *hub.Hub
	url string
}

func newServer(t *testing.T, perSecond int) *server {
	t.Helper()
	h := hub.New(hub.Options{HeartbeatInterval: time.Minute, Window: 2 * time.Minute, Log: zerolog.Nop()})
	handler := NewHandler(h, token.NewVerifier(secret), Options{
		SendBuffer:        8,
		MessagesPerSecond: perSecond,
		Log:               zerolog.Nop(),
	})
	e := echo.New()
	e.GET("/ws", handler.Serve)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &server{hub: h, url: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"}
}

func (s *server) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func mint(t *testing.T, identity string, role notify.Role) string {
	t.Helper()
	raw, err := token.NewVerifier(secret).Issue(token.Principal{Identity: identity, Role: role}, time.Minute)
	require.NoError(t, err)
	return raw
}

type received struct {
	Type notify.Type    `json:"type"`
	Data map[string]any `json:"data"`
}

func read(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg received
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func authenticate(t *testing.T, conn *websocket.Conn, raw string) received {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "authenticate", "data": map[string]string{"token": raw}}))
	return read(t, conn)
}

func TestAuthenticateThenReceive(t *testing.T) {
	s := newServer(t, 10)
	conn := s.dial(t)

	msg := authenticate(t, conn, mint(t, "stu-1", notify.RoleStudent))
	require.Equal(t, notify.TypeAuthenticated, msg.Type)
	assert.Equal(t, "stu-1", msg.Data["identity"])
	assert.Equal(t, "student", msg.Data["role"])
	assert.True(t, strings.HasPrefix(msg.Data["sessionId"].(string), "ws_"))
	require.Equal(t, 1, s.hub.Count())

	n := s.hub.Deliver(notify.ToIdentity("stu-1", notify.TypeApplicationStatusUpdate, map[string]string{"newStatus": "shortlisted"}))
	assert.Equal(t, 1, n)
	msg = read(t, conn)
	assert.Equal(t, notify.TypeApplicationStatusUpdate, msg.Type)
	assert.Equal(t, "shortlisted", msg.Data["newStatus"])

	assert.Equal(t, 1, s.hub.SendToRole(notify.RoleStudent, notify.Envelope{Type: notify.TypeNewScholarship}))
	assert.Equal(t, notify.TypeNewScholarship, read(t, conn).Type)
}

func TestSecondAuthenticationIsAnError(t *testing.T) {
	s := newServer(t, 10)
	conn := s.dial(t)

	require.Equal(t, notify.TypeAuthenticated, authenticate(t, conn, mint(t, "rev-1", notify.RoleReviewer)).Type)
	msg := authenticate(t, conn, mint(t, "adm-1", notify.RoleAdmin))
	require.Equal(t, notify.TypeError, msg.Type)
	assert.Contains(t, msg.Data["message"], "already authenticated")

	// still bound to the first identity
	assert.Equal(t, 0, s.hub.SendToIdentity("adm-1", notify.Envelope{Type: notify.TypePong}))
	assert.Equal(t, 1, s.hub.SendToIdentity("rev-1", notify.Envelope{Type: notify.TypePong}))
}

func TestInvalidTokenAndUnknownMessages(t *testing.T) {
	s := newServer(t, 10)
	conn := s.dial(t)

	msg := authenticate(t, conn, "garbage")
	assert.Equal(t, notify.TypeError, msg.Type)
	assert.Equal(t, 0, s.hub.Count())

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "subscribe"}))
	msg = read(t, conn)
	assert.Equal(t, notify.TypeError, msg.Type)
	assert.Equal(t, "unknown message type", msg.Data["message"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, "malformed message", read(t, conn).Data["message"])

	// top-level token is accepted too, and a failed attempt does not burn the session
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "authenticate", "token": mint(t, "don-1", notify.RoleDonor)}))
	assert.Equal(t, notify.TypeAuthenticated, read(t, conn).Type)
}

func TestPingPong(t *testing.T) {
	s := newServer(t, 10)
	conn := s.dial(t)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	msg := read(t, conn)
	assert.Equal(t, notify.TypePong, msg.Type)
	assert.NotEmpty(t, msg.Data["timestamp"])
}

func TestRateLimit(t *testing.T) {
	s := newServer(t, 1)
	conn := s.dial(t)

	for i := 0; i < 2; i++ {
		require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	}
	assert.Equal(t, notify.TypePong, read(t, conn).Type)
	msg := read(t, conn)
	assert.Equal(t, notify.TypeError, msg.Type)
	assert.Equal(t, "rate limit exceeded", msg.Data["message"])
}

func TestReconnectEvictsOldSocketAndDisconnectUnregisters(t *testing.T) {
	s := newServer(t, 10)
	first := s.dial(t)
	require.Equal(t, notify.TypeAuthenticated, authenticate(t, first, mint(t, "stu-9", notify.RoleStudent)).Type)

	second := s.dial(t)
	require.Equal(t, notify.TypeAuthenticated, authenticate(t, second, mint(t, "stu-9", notify.RoleStudent)).Type)

	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	assert.Equal(t, 1, s.hub.Count())
	assert.Equal(t, 1, s.hub.SendToIdentity("stu-9", notify.Envelope{Type: notify.TypePong}))
	assert.Equal(t, notify.TypePong, read(t, second).Type)

	require.NoError(t, second.Close())
	require.Eventually(t, func() bool { return s.hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
