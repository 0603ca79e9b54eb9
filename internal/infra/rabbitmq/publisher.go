package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

type Publisher struct {
	mu       sync.Mutex
	channel  *amqp.Channel
	exchange string
	log      *zap.Logger
}

// Envelope is the JSON shape of every message the service publishes.
type Envelope struct {
	Pattern string          `json:"pattern"`
	Data    json.RawMessage `json:"data"`
}

func NewPublisher(conn *amqp.Connection, exchange string, log *zap.Logger) (*Publisher, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return &Publisher{
		channel:  channel,
		exchange: exchange,
		log:      log,
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, pattern string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	body, err := json.Marshal(Envelope{Pattern: pattern, Data: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.PublishRaw(ctx, p.exchange, pattern, msg); err != nil {
		return err
	}

	p.log.Debug("message published",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", pattern),
		zap.String("message_id", msg.MessageId))
	return nil
}

func (p *Publisher) PublishRaw(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.Publish(exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish %q to %q: %w", routingKey, exchange, err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
}
