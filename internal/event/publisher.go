package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/sreenu926/50cube-staging/internal/domain"
)

// RoutingKeyCompleted is the topic completed sessions are published on.
const RoutingKeyCompleted = "challenge.completed"

// channel is the subset of *amqp091.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Envelope wraps every published event.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// Publisher sends completion events to a RabbitMQ topic exchange.
type Publisher struct {
	conn     *amqp091.Connection
	channel  channel
	exchange string
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewPublisher dials RabbitMQ and declares a durable topic exchange.
func NewPublisher(url, exchange string, log logrus.FieldLogger) (*Publisher, error) {
	if exchange == "" {
		exchange = "leagues"
	}
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	p := newPublisher(ch, exchange, log)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string, log logrus.FieldLogger) *Publisher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Publisher{channel: ch, exchange: exchange, log: log, now: time.Now}
}

// PublishCompleted announces a completed challenge session.
func (p *Publisher) PublishCompleted(ctx context.Context, e domain.CompletionEvent) error {
	body, err := json.Marshal(Envelope{Type: RoutingKeyCompleted, OccurredAt: p.now(), Payload: e})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = p.channel.PublishWithContext(ctx, p.exchange, RoutingKeyCompleted, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    p.now(),
		MessageId:    e.SessionID,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", RoutingKeyCompleted, err)
	}
	p.log.WithFields(logrus.Fields{"session": e.SessionID, "challenge": e.ChallengeID}).Debug("published completion event")
	return nil
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.WithError(err).Warn("close rabbitmq channel")
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
