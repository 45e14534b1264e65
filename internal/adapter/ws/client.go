package ws

import (
	"errors"
	"sync"
	"time"

	"scholarfund-backend/internal/domain/notify"
	"scholarfund-backend/internal/hub"

	"github.com/gorilla/websocket"
)

var errClientClosed = errors.New("ws: client closed")

type frame struct {
	env  notify.Envelope
	ping bool
}

// client adapts one websocket to hub.Conn. All writes go through a single
// writer goroutine fed by a bounded queue.
type client struct {
	conn      *websocket.Conn
	out       chan frame
	done      chan struct{}
	once      sync.Once
	writeWait time.Duration
}

var _ hub.Conn = (*client)(nil)

func newClient(conn *websocket.Conn, buffer int, writeWait time.Duration) *client {
	if buffer <= 0 {
		buffer = 32
	}
	return &client{
		conn:      conn,
		out:       make(chan frame, buffer),
		done:      make(chan struct{}),
		writeWait: writeWait,
	}
}

func (c *client) enqueue(f frame) error {
	select {
	case <-c.done:
		return errClientClosed
	default:
	}
	select {
	case c.out <- f:
		return nil
	default:
		return hub.ErrSendBufferFull
	}
}

func (c *client) Send(env notify.Envelope) error { return c.enqueue(frame{env: env}) }

func (c *client) Ping() error { return c.enqueue(frame{ping: true}) }

// Close asks the writer to send a close frame and tear the socket down.
func (c *client) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *client) writePump() {
	defer c.conn.Close()
	for {
		select {
		case f := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			var err error
			if f.ping {
				err = c.conn.WriteMessage(websocket.PingMessage, nil)
			} else {
				err = c.conn.WriteJSON(f.env)
			}
			if err != nil {
				c.Close()
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.writeWait))
			return
		}
	}
}
