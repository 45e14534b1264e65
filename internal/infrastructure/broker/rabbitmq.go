// Package broker publishes domain events to RabbitMQ for the email
// collaborator. Publishing is best effort; callers log and move on.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"scholarfund-backend/internal/domain/notify"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher is a notify.Publisher that can be shut down.
type Publisher interface {
	notify.Publisher
	Close()
}

// EventProducer publishes JSON bodies to one durable topic exchange.
type EventProducer struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	log      zerolog.Logger
}

// Fallback drops events when no broker is reachable at startup.
type Fallback struct{ log zerolog.Logger }

func NewFallback(log zerolog.Logger) *Fallback { return &Fallback{log: log} }

func (f *Fallback) Publish(_ context.Context, routingKey string, _ any) error {
	f.log.Warn().Str("component", "broker").Str("mode", "fallback").
		Str("routing_key", routingKey).Msg("publish skipped")
	return nil
}

func (f *Fallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	if idx := strings.Index(strings.ToLower(clean), "amqp"); idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

func NewEventProducer(amqpURL, exchange string, log zerolog.Logger) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}
	return &EventProducer{conn: conn, channel: ch, exchange: exchange, log: log}, nil
}

// Open returns a live producer, or the fallback when amqpURL is empty or
// the broker cannot be reached.
func Open(amqpURL, exchange string, log zerolog.Logger) Publisher {
	if strings.TrimSpace(amqpURL) == "" {
		log.Info().Str("component", "broker").Msg("RABBITMQ_URL empty; events will be dropped")
		return NewFallback(log)
	}
	p, err := NewEventProducer(amqpURL, exchange, log)
	if err != nil {
		log.Warn().Err(err).Str("component", "broker").Msg("broker unavailable; using fallback publisher")
		return NewFallback(log)
	}
	return p
}

func (p *EventProducer) Publish(ctx context.Context, routingKey string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	if err == nil {
		return nil
	}
	p.log.Warn().Err(err).Str("routing_key", routingKey).Msg("publish failed; reopening channel")

	// one reopen, then give up
	ch, chErr := p.conn.Channel()
	if chErr != nil {
		return chErr
	}
	p.channel = ch
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
}

func (p *EventProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
