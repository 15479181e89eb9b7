package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flicky/ecom-cart-api/internal/model"
)

const (
	CartExchange = "cart.events"
	cartQueue    = "cart.events.audit"
	dlxExchange  = "cart.events.dlx"
	dlqQueue     = "cart.events.dlq"
)

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Setup declares the cart topic exchange and a durable audit queue bound to
// every cart routing key, with rejected messages dead-lettered.
func Setup(ch Channel) error {
	if err := ch.ExchangeDeclare(CartExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare cart exchange: %w", err)
	}
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueue, cartQueue, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(cartQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": cartQueue,
	}); err != nil {
		return fmt.Errorf("declare cart queue: %w", err)
	}
	if err := ch.QueueBind(cartQueue, "cart.#", CartExchange, false, nil); err != nil {
		return fmt.Errorf("bind cart queue: %w", err)
	}
	return nil
}

// Publisher sends cart events to the cart exchange as persistent JSON
// messages routed by event type.
type Publisher struct {
	mu sync.Mutex
	ch Channel
}

func NewPublisher(ch Channel) *Publisher {
	return &Publisher{ch: ch}
}

func (p *Publisher) Publish(ctx context.Context, event model.CartEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal cart event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, CartExchange, string(event.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         string(event.Type),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Closable is satisfied by *amqp.Connection and *amqp.Channel.
type Closable interface {
	IsClosed() bool
}

// ReadyCheck reports amqp.ErrClosed once any of the given connections or
// channels has closed. A closed channel on a live connection still fails
// every publish.
func ReadyCheck(parts ...Closable) func(context.Context) error {
	return func(context.Context) error {
		for _, p := range parts {
			if p.IsClosed() {
				return amqp.ErrClosed
			}
		}
		return nil
	}
}
