// Package ws serves the push channel: clients authenticate once over the
// socket and then receive hub events until they disconnect or go silent.
package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"scholarfund-backend/internal/domain/notify"
	"scholarfund-backend/internal/hub"
	"scholarfund-backend/internal/infrastructure/token"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	inboundAuthenticate = "authenticate"
	inboundPing         = "ping"

	maxMessageBytes = 4096
)

type Verifier interface {
	Verify(raw string) (token.Principal, error)
}

type Options struct {
	SendBuffer        int
	MessagesPerSecond int
	// PongWait is how long the socket may stay silent before reads fail.
	PongWait  time.Duration
	WriteWait time.Duration
	Log       zerolog.Logger
}

type Handler struct {
	hub      *hub.Hub
	verifier Verifier
	upgrader websocket.Upgrader
	opts     Options
}

func NewHandler(h *hub.Hub, v Verifier, o Options) *Handler {
	if o.PongWait <= 0 {
		o.PongWait = 75 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.MessagesPerSecond <= 0 {
		o.MessagesPerSecond = 5
	}
	return &Handler{
		hub:      h,
		verifier: v,
		opts:     o,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// browsers on other origins are expected; auth happens in-band
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

type inbound struct {
	Type  string `json:"type"`
	Token string `json:"token"`
	Data  struct {
		Token string `json:"token"`
	} `json:"data"`
}

func (m inbound) token() string {
	if m.Data.Token != "" {
		return m.Data.Token
	}
	return m.Token
}

type errorPayload struct {
	Message string `json:"message"`
}

type authenticatedPayload struct {
	Identity  string      `json:"identity"`
	Role      notify.Role `json:"role"`
	SessionID string      `json:"sessionId"`
}

type pongPayload struct {
	Timestamp time.Time `json:"timestamp"`
}

// Serve upgrades the request and blocks until the connection ends.
func (h *Handler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		return nil
	}

	cl := newClient(conn, h.opts.SendBuffer, h.opts.WriteWait)
	session := hub.NewSession()
	log := h.opts.Log.With().Str("session_id", session.ID).Logger()
	log.Debug().Str("remote", c.RealIP()).Msg("push connection opened")

	go cl.writePump()
	h.readPump(cl, session, log)
	return nil
}

func (h *Handler) readPump(cl *client, s *hub.Session, log zerolog.Logger) {
	defer func() {
		s.Close()
		if identity, _, ok := s.Principal(); ok {
			h.hub.Release(identity, cl)
		}
		cl.Close()
		log.Debug().Msg("push connection closed")
	}()

	conn := cl.conn
	limiter := rate.NewLimiter(rate.Limit(h.opts.MessagesPerSecond), h.opts.MessagesPerSecond)
	alive := func() {
		_ = conn.SetReadDeadline(time.Now().Add(h.opts.PongWait))
		if identity, _, ok := s.Principal(); ok {
			h.hub.Touch(identity, cl)
		}
	}

	conn.SetReadLimit(maxMessageBytes)
	alive()
	conn.SetPongHandler(func(string) error { alive(); return nil })

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("push connection read failed")
			}
			return
		}
		alive()

		if !limiter.Allow() {
			h.reply(cl, notify.TypeError, errorPayload{Message: "rate limit exceeded"})
			continue
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			h.reply(cl, notify.TypeError, errorPayload{Message: "malformed message"})
			continue
		}

		switch msg.Type {
		case inboundAuthenticate:
			h.authenticate(cl, s, msg.token(), log)
		case inboundPing:
			h.reply(cl, notify.TypePong, pongPayload{Timestamp: time.Now().UTC()})
		default:
			h.reply(cl, notify.TypeError, errorPayload{Message: "unknown message type"})
		}
	}
}

func (h *Handler) authenticate(cl *client, s *hub.Session, raw string, log zerolog.Logger) {
	if s.State() == hub.StateAuthenticated {
		h.reply(cl, notify.TypeError, errorPayload{Message: hub.ErrAlreadyAuthenticated.Error()})
		return
	}
	p, err := h.verifier.Verify(raw)
	if err != nil {
		h.reply(cl, notify.TypeError, errorPayload{Message: err.Error()})
		return
	}
	if err := s.Authenticate(p.Identity, p.Role); err != nil {
		h.reply(cl, notify.TypeError, errorPayload{Message: err.Error()})
		return
	}
	h.hub.Register(p.Identity, p.Role, cl)
	log.Info().Str("identity", p.Identity).Str("role", string(p.Role)).Msg("push connection authenticated")
	h.reply(cl, notify.TypeAuthenticated, authenticatedPayload{Identity: p.Identity, Role: p.Role, SessionID: s.ID})
}

func (h *Handler) reply(cl *client, t notify.Type, data any) {
	_ = cl.Send(notify.Envelope{Type: t, Data: data})
}
