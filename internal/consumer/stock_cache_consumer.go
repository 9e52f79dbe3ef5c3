package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

// ErrMalformedEvent marks deliveries that can never be processed.
var ErrMalformedEvent = errors.New("malformed order event")

// Invalidator is implemented by *catalog.Catalog.
type Invalidator interface {
	InvalidateProducts(ctx context.Context, ids ...int64) error
}

// StockCacheConsumer drops cached products whose stock moved because an
// order was created or deleted.
type StockCacheConsumer struct {
	products Invalidator
}

func NewStockCacheConsumer(products Invalidator) *StockCacheConsumer {
	return &StockCacheConsumer{products: products}
}

// ProcessOrderEvents handles deliveries until the channel is closed or ctx
// is done.
func (c *StockCacheConsumer) ProcessOrderEvents(ctx context.Context, messages <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			c.process(ctx, msg)
		}
	}
}

func (c *StockCacheConsumer) process(ctx context.Context, msg amqp.Delivery) {
	event, err := c.Handle(ctx, msg.Body)
	if err != nil {
		if errors.Is(err, ErrMalformedEvent) {
			log.Printf("❌ Failed to parse event: %v", err)
			msg.Nack(false, false) // Don't requeue bad messages
			return
		}
		log.Printf("⚠️ Order #%d cache invalidation failed, requeued: %v", event.OrderID, err)
		msg.Nack(false, true) // Requeue for retry
		return
	}

	msg.Ack(false)
}

// Handle applies one event body and returns the decoded event.
func (c *StockCacheConsumer) Handle(ctx context.Context, body []byte) (models.OrderEvent, error) {
	var event models.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	log.Printf("📥 Received %s event for Order #%d", event.Type, event.OrderID)

	switch event.Type {
	case models.EventOrderCreated, models.EventOrderDeleted:
		ids := event.ProductIDs()
		if len(ids) == 0 {
			return event, nil
		}
		if err := c.products.InvalidateProducts(ctx, ids...); err != nil {
			return event, err
		}
		log.Printf("🗑️ Cache invalidated: products %v", ids)
	case models.EventOrderStatusChanged:
		// no stock movement
	default:
		return event, fmt.Errorf("%w: unknown event type %q", ErrMalformedEvent, event.Type)
	}

	return event, nil
}
