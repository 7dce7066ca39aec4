package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"convoy-bot/config"
)

// Publisher emits lifecycle events (ticket.opened, ticket.closed,
// ticket.deleted, announcement.delivered) for external consumers. Publishing
// is best-effort: a broker problem is logged and never fails the operation
// that triggered it.
type Publisher interface {
	Publish(ctx context.Context, event string, fields map[string]any)
	Close() error
}

func NewPublisher(cfg config.AMQPConfig, log *zap.Logger) (Publisher, error) {
	if cfg.URL == "" {
		return nopPublisher{}, nil
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp exchange declare: %w", err)
	}

	log.Info("event publisher connected", zap.String("exchange", cfg.Exchange))
	return &amqpPublisher{conn: conn, ch: ch, exchange: cfg.Exchange, log: log}, nil
}

type amqpPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      *zap.Logger
}

func (p *amqpPublisher) Publish(ctx context.Context, event string, fields map[string]any) {
	body, err := json.Marshal(fields)
	if err != nil {
		p.log.Warn("event payload marshal failed", zap.String("event", event), zap.Error(err))
		return
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, event, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now().UTC(),
		Body:        body,
	})
	if err != nil {
		p.log.Warn("event publish failed", zap.String("event", event), zap.Error(err))
	}
}

func (p *amqpPublisher) Close() error {
	_ = p.ch.Close()
	return p.conn.Close()
}

// Nop returns a publisher that drops everything, for unconfigured setups and
// tests.
func Nop() Publisher { return nopPublisher{} }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, map[string]any) {}
func (nopPublisher) Close() error                                    { return nil }
