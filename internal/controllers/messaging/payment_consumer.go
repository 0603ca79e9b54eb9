package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"order-saga/internal/domain"
	rabbit "order-saga/internal/infra/rabbitmq"
	"order-saga/internal/services"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// HeaderRetryCount counts how many times a delivery went through the retry
// queue.
const HeaderRetryCount = "x-retry-count"

// defaultHandleTimeout bounds one delivery when Options.HandleTimeout is unset.
const defaultHandleTimeout = 30 * time.Second

var ErrDeliveriesClosed = errors.New("delivery channel closed")

type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, evt domain.PaymentEvent) error
}

// DeliveryStore remembers claimed message ids across redeliveries.
type DeliveryStore interface {
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

type Options struct {
	Topology      rabbit.Topology
	MaxRetries    int
	Workers       int
	HandleTimeout time.Duration
}

// PaymentConsumer applies payment events from the broker. A delivery is
// acked only once it was fully handled. Failures that may pass on their own
// are parked in the retry queue; everything else is rejected without
// requeue, which dead-letters it.
type PaymentConsumer struct {
	confirmer PaymentConfirmer
	store     DeliveryStore
	retrier   rabbit.RawPublisher
	opts      Options
	log       *zap.Logger
}

func NewPaymentConsumer(confirmer PaymentConfirmer, store DeliveryStore, retrier rabbit.RawPublisher, opts Options, log *zap.Logger) *PaymentConsumer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.HandleTimeout <= 0 {
		opts.HandleTimeout = defaultHandleTimeout
	}
	return &PaymentConsumer{
		confirmer: confirmer,
		store:     store,
		retrier:   retrier,
		opts:      opts,
		log:       log,
	}
}

// Run handles deliveries on a fixed pool of workers until ctx is done or the
// delivery channel closes. Cancelling ctx stops workers from taking new
// deliveries; those already taken are finished before Run returns. A channel closed by the broker while ctx is still
// live is reported as ErrDeliveriesClosed.
func (c *PaymentConsumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < c.opts.Workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case d, ok := <-deliveries:
					if !ok {
						if ctx.Err() != nil {
							return nil
						}
						return ErrDeliveriesClosed
					}
					c.Handle(ctx, d)
				}
			}
		})
	}
	return g.Wait()
}

// Handle runs one delivery to its ack, retry or dead-letter outcome. The work
// is detached from ctx cancellation and bounded by Options.HandleTimeout so
// a shutdown never dead-letters an event that should have been retried.
func (c *PaymentConsumer) Handle(ctx context.Context, d amqp.Delivery) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.HandleTimeout)
	defer cancel()

	log := c.log.With(zap.String("message_id", d.MessageId), zap.Uint64("delivery_tag", d.DeliveryTag))

	evt, err := decodePaymentEvent(d.Body)
	if err != nil {
		log.Error("malformed payment event", zap.Error(err))
		c.reject(log, d)
		return
	}
	evt.Retried = retryCount(d.Headers) > 0
	log = log.With(zap.Uint64("order_id", evt.OrderID))

	claimed := false
	if d.MessageId != "" && c.store != nil {
		fresh, err := c.store.Claim(ctx, d.MessageId)
		switch {
		case err != nil:
			log.Warn("delivery dedupe unavailable, processing anyway", zap.Error(err))
		case !fresh:
			log.Info("payment event already handled, skipping")
			c.ack(log, d)
			return
		default:
			claimed = true
		}
	}

	if err := c.confirmer.ConfirmPayment(ctx, evt); err != nil {
		if claimed {
			if rerr := c.store.Release(ctx, d.MessageId); rerr != nil {
				log.Warn("failed to release delivery claim", zap.Error(rerr))
			}
		}
		c.fail(ctx, log, d, err)
		return
	}

	c.ack(log, d)
}

func (c *PaymentConsumer) fail(ctx context.Context, log *zap.Logger, d amqp.Delivery, cause error) {
	attempts := retryCount(d.Headers)
	log = log.With(zap.Int("attempt", attempts+1), zap.Error(cause))

	if !services.IsRetryable(cause) || attempts >= c.opts.MaxRetries {
		log.Error("payment event dead-lettered")
		c.reject(log, d)
		return
	}

	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[HeaderRetryCount] = int32(attempts + 1)

	msg := amqp.Publishing{
		Headers:      headers,
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    d.MessageId,
		Timestamp:    d.Timestamp,
		Body:         d.Body,
	}
	if err := c.retrier.PublishRaw(ctx, "", c.opts.Topology.RetryQueue(), msg); err != nil {
		log.Error("payment event could not be parked for retry", zap.NamedError("publish_error", err))
		c.reject(log, d)
		return
	}

	log.Warn("payment event scheduled for retry")
	c.ack(log, d)
}

func (c *PaymentConsumer) ack(log *zap.Logger, d amqp.Delivery) {
	if err := d.Ack(false); err != nil {
		log.Error("failed to ack payment event", zap.Error(err))
	}
}

func (c *PaymentConsumer) reject(log *zap.Logger, d amqp.Delivery) {
	if err := d.Reject(false); err != nil {
		log.Error("failed to reject payment event", zap.Error(err))
	}
}

func retryCount(h amqp.Table) int {
	switch v := h[HeaderRetryCount].(type) {
	case int:
		return v
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}

type paymentMessage struct {
	OrderID    uint64 `json:"orderId"`
	CustomerID uint64 `json:"customerId"`
	UserID     uint64 `json:"userId"`
	Outcome    string `json:"outcome"`
	Status     string `json:"status"`
}

// decodePaymentEvent accepts the event either wrapped in a
// {"pattern","data"} envelope or as a bare object.
func decodePaymentEvent(body []byte) (domain.PaymentEvent, error) {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("decode payment event: %w", err)
	}
	if len(env.Data) > 0 {
		body = env.Data
	}

	var m paymentMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("decode payment event: %w", err)
	}
	if m.OrderID == 0 {
		return domain.PaymentEvent{}, errors.New("decode payment event: missing orderId")
	}

	evt := domain.PaymentEvent{OrderID: m.OrderID, CustomerID: m.CustomerID, Outcome: m.Outcome}
	if evt.CustomerID == 0 {
		evt.CustomerID = m.UserID
	}
	if evt.Outcome == "" {
		evt.Outcome = m.Status
	}
	return evt, nil
}
