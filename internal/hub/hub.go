// Package hub is the process-wide registry of live push connections. It is
// best effort: nothing is queued for identities that are not connected.
package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"scholarfund-backend/internal/domain/notify"
	"scholarfund-backend/internal/infrastructure/metrics"

	"github.com/rs/zerolog"
)

// ErrSendBufferFull is returned by Conn.Send when the message was dropped.
var ErrSendBufferFull = errors.New("hub: send buffer full")

// Conn is one live push connection. Send and Ping must not block.
type Conn interface {
	Send(env notify.Envelope) error
	Ping() error
	Close() error
}

type entry struct {
	conn     Conn
	role     notify.Role
	lastSeen time.Time
}

type Options struct {
	// HeartbeatInterval is how often Run pings and sweeps.
	HeartbeatInterval time.Duration
	// Window is how long a connection may stay silent before eviction.
	Window  time.Duration
	Metrics *metrics.Metrics
	Log     zerolog.Logger
	Now     func() time.Time
}

type Hub struct {
	mu    sync.RWMutex
	conns map[string]*entry

	interval time.Duration
	window   time.Duration
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

func New(o Options) *Hub {
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 30 * time.Second
	}
	if o.Window <= o.HeartbeatInterval {
		o.Window = 2*o.HeartbeatInterval + o.HeartbeatInterval/2
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return &Hub{
		conns:    make(map[string]*entry),
		interval: o.HeartbeatInterval,
		window:   o.Window,
		metrics:  o.Metrics,
		log:      o.Log,
		now:      o.Now,
	}
}

// Register makes c the only connection for identity, closing any previous one.
func (h *Hub) Register(identity string, role notify.Role, c Conn) {
	h.mu.Lock()
	prev := h.conns[identity]
	h.conns[identity] = &entry{conn: c, role: role, lastSeen: h.now()}
	n := len(h.conns)
	h.mu.Unlock()

	h.metrics.SetConnections(n)
	if prev != nil && prev.conn != c {
		h.log.Debug().Str("identity", identity).Msg("evicting superseded connection")
		_ = prev.conn.Close()
	}
}

func (h *Hub) Unregister(identity string) {
	h.mu.Lock()
	delete(h.conns, identity)
	n := len(h.conns)
	h.mu.Unlock()
	h.metrics.SetConnections(n)
}

// Release unregisters identity only while c is still its connection, so a
// superseded connection shutting down cannot remove its replacement.
func (h *Hub) Release(identity string, c Conn) bool {
	h.mu.Lock()
	e, ok := h.conns[identity]
	if ok && e.conn == c {
		delete(h.conns, identity)
	}
	n := len(h.conns)
	h.mu.Unlock()
	h.metrics.SetConnections(n)
	return ok && e.conn == c
}

// Touch records liveness for identity's current connection.
func (h *Hub) Touch(identity string, c Conn) {
	h.mu.Lock()
	if e, ok := h.conns[identity]; ok && e.conn == c {
		e.lastSeen = h.now()
	}
	h.mu.Unlock()
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) SendToIdentity(identity string, env notify.Envelope) int {
	h.mu.RLock()
	e, ok := h.conns[identity]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	n := send([]Conn{e.conn}, env)
	h.metrics.Delivered("identity", n)
	return n
}

func (h *Hub) SendToRole(role notify.Role, env notify.Envelope) int {
	n := send(h.snapshot(func(e *entry) bool { return e.role == role }), env)
	h.metrics.Delivered("role", n)
	return n
}

func (h *Hub) Broadcast(env notify.Envelope) int {
	n := send(h.snapshot(func(*entry) bool { return true }), env)
	h.metrics.Delivered("broadcast", n)
	return n
}

// Deliver routes an event to its target; it implements notify.Notifier.
func (h *Hub) Deliver(ev notify.Event) int {
	switch {
	case ev.Broadcast:
		return h.Broadcast(ev.Envelope())
	case ev.TargetIdentity != "":
		return h.SendToIdentity(ev.TargetIdentity, ev.Envelope())
	case ev.TargetRole != "":
		return h.SendToRole(ev.TargetRole, ev.Envelope())
	}
	return 0
}

func (h *Hub) snapshot(match func(*entry) bool) []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Conn, 0, len(h.conns))
	for _, e := range h.conns {
		if match(e) {
			out = append(out, e.conn)
		}
	}
	return out
}

func send(conns []Conn, env notify.Envelope) int {
	reached := 0
	for _, c := range conns {
		if err := c.Send(env); err == nil {
			reached++
		}
	}
	return reached
}

type target struct {
	identity string
	conn     Conn
}

// Sweep evicts connections silent for longer than the window and pings the
// rest; a failed ping evicts too. It returns the number evicted.
func (h *Hub) Sweep() int {
	cutoff := h.now().Add(-h.window)

	h.mu.Lock()
	var stale, live []target
	for identity, e := range h.conns {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, target{identity, e.conn})
			delete(h.conns, identity)
			continue
		}
		live = append(live, target{identity, e.conn})
	}
	n := len(h.conns)
	h.mu.Unlock()
	h.metrics.SetConnections(n)

	for _, t := range stale {
		h.log.Info().Str("identity", t.identity).Msg("heartbeat window missed; evicting")
		_ = t.conn.Close()
	}
	evicted := len(stale)
	for _, t := range live {
		if err := t.conn.Ping(); err != nil {
			h.log.Info().Err(err).Str("identity", t.identity).Msg("ping failed; evicting")
			h.Release(t.identity, t.conn)
			_ = t.conn.Close()
			evicted++
		}
	}
	return evicted
}

// Run sweeps on every heartbeat until ctx is done, then closes everything.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.Sweep()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	conns := make([]Conn, 0, len(h.conns))
	for _, e := range h.conns {
		conns = append(conns, e.conn)
	}
	h.conns = make(map[string]*entry)
	h.mu.Unlock()
	h.metrics.SetConnections(0)
	for _, c := range conns {
		_ = c.Close()
	}
}
