// Package dispatch runs the post-commit side channels: push delivery through
// the hub and outbound broker events. Neither can fail the caller.
package dispatch

import (
	"context"
	"time"

	"scholarfund-backend/internal/domain/notify"
	"scholarfund-backend/internal/infrastructure/metrics"

	"github.com/rs/zerolog"
)

const publishTimeout = 3 * time.Second

type Dispatcher struct {
	notifier  notify.Notifier
	publisher notify.Publisher
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// New accepts nil notifier or publisher; the matching channel is skipped.
func New(n notify.Notifier, p notify.Publisher, m *metrics.Metrics, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{notifier: n, publisher: p, metrics: m, log: log}
}

// Push returns how many live connections were reached.
func (d *Dispatcher) Push(ev notify.Event) int {
	if d == nil || d.notifier == nil {
		return 0
	}
	n := d.notifier.Deliver(ev)
	d.log.Debug().Str("event", string(ev.Type)).Int("recipients", n).Msg("push delivered")
	return n
}

// Publish detaches from the request context so a client disconnect right
// after commit does not drop the event.
func (d *Dispatcher) Publish(ctx context.Context, routingKey string, body any) {
	if d == nil || d.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := d.publisher.Publish(ctx, routingKey, body)
	d.metrics.EventPublished(routingKey, err)
	if err != nil {
		d.log.Warn().Err(err).Str("routing_key", routingKey).Msg("event publish failed")
	}
}
