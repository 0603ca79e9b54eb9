package rabbitmq

import (
	"context"

	"github.com/streadway/amqp"
)

type PublisherInterface interface {
	Publish(ctx context.Context, routingKey string, data any) error
}

// RawPublisher sends an already encoded message to an arbitrary exchange.
type RawPublisher interface {
	PublishRaw(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error
}

var (
	_ PublisherInterface = (*Publisher)(nil)
	_ RawPublisher       = (*Publisher)(nil)
)
