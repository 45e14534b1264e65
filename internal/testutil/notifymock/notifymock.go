// Package notifymock records push events and broker messages for assertions.
package notifymock

import (
	"context"
	"sync"

	"scholarfund-backend/internal/domain/notify"
)

type Notifier struct {
	// Reached is returned from every Deliver call.
	Reached int

	mu     sync.Mutex
	events []notify.Event
}

func (n *Notifier) Deliver(ev notify.Event) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.Reached
}

func (n *Notifier) Events() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Event(nil), n.events...)
}

// OfType filters recorded events.
func (n *Notifier) OfType(t notify.Type) []notify.Event {
	var out []notify.Event
	for _, ev := range n.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type Message struct {
	Key  string
	Body any
}

type Publisher struct {
	Err error
	// LastCtxErr is ctx.Err() as seen by the most recent Publish.
	LastCtxErr error

	mu       sync.Mutex
	messages []Message
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.LastCtxErr = ctx.Err()
	p.messages = append(p.messages, Message{Key: routingKey, Body: body})
	return p.Err
}

func (p *Publisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.messages...)
}

func (p *Publisher) Keys() []string {
	var out []string
	for _, m := range p.Messages() {
		out = append(out, m.Key)
	}
	return out
}
