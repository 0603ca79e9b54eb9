package rabbitmq

import (
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Declarer is the subset of *amqp.Channel needed to declare the topology.
type Declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// Topology describes the exchanges and queues the service owns.
//
// Payment events arrive on PaymentQueue. Deliveries that should be tried
// again are parked in the retry queue, whose TTL dead-letters them back into
// PaymentQueue. Deliveries rejected without requeue end up in the
// dead-letter queue for operators.
type Topology struct {
	OrderExchange      string
	PaymentExchange    string
	PaymentRoutingKey  string
	PaymentQueue       string
	DeadLetterExchange string
	RetryDelay         time.Duration
}

func (t Topology) RetryQueue() string {
	return t.PaymentQueue + ".retry"
}

func (t Topology) DeadLetterQueue() string {
	return t.PaymentQueue + ".dlq"
}

func (t Topology) Declare(ch Declarer) error {
	exchanges := []struct{ name, kind string }{
		{t.OrderExchange, amqp.ExchangeTopic},
		{t.PaymentExchange, amqp.ExchangeTopic},
		{t.DeadLetterExchange, amqp.ExchangeDirect},
	}
	for _, ex := range exchanges {
		if err := ch.ExchangeDeclare(ex.name, ex.kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange %q: %w", ex.name, err)
		}
	}

	if _, err := ch.QueueDeclare(t.PaymentQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    t.DeadLetterExchange,
		"x-dead-letter-routing-key": t.PaymentQueue,
	}); err != nil {
		return fmt.Errorf("failed to declare queue %q: %w", t.PaymentQueue, err)
	}
	if err := ch.QueueBind(t.PaymentQueue, t.PaymentRoutingKey, t.PaymentExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %q: %w", t.PaymentQueue, err)
	}

	if _, err := ch.QueueDeclare(t.RetryQueue(), true, false, false, false, amqp.Table{
		"x-message-ttl":             t.RetryDelay.Milliseconds(),
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": t.PaymentQueue,
	}); err != nil {
		return fmt.Errorf("failed to declare queue %q: %w", t.RetryQueue(), err)
	}

	if _, err := ch.QueueDeclare(t.DeadLetterQueue(), true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %q: %w", t.DeadLetterQueue(), err)
	}
	if err := ch.QueueBind(t.DeadLetterQueue(), t.PaymentQueue, t.DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %q: %w", t.DeadLetterQueue(), err)
	}

	return nil
}
