package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

const OrderEventsQueue = "erp.order.events"

// Broker is implemented by *messaging.RabbitMQ.
type Broker interface {
	DeclareQueue(name string) error
	Publish(ctx context.Context, queue, messageID string, message []byte) error
}

// OrderPublisher turns committed ledger changes into order events.
type OrderPublisher struct {
	mq  Broker
	now func() time.Time
}

func NewOrderPublisher(mq Broker) (*OrderPublisher, error) {
	// Declare the queue
	if err := mq.DeclareQueue(OrderEventsQueue); err != nil {
		return nil, err
	}

	return &OrderPublisher{mq: mq, now: time.Now}, nil
}

func (p *OrderPublisher) OrderCreated(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, NewOrderEvent(models.EventOrderCreated, order, -1, p.now()))
}

func (p *OrderPublisher) OrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error {
	event := NewOrderEvent(models.EventOrderStatusChanged, order, 0, p.now())
	event.OldStatus = previous
	return p.publish(ctx, event)
}

func (p *OrderPublisher) OrderDeleted(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, NewOrderEvent(models.EventOrderDeleted, order, 1, p.now()))
}

func (p *OrderPublisher) publish(ctx context.Context, event models.OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.mq.Publish(ctx, OrderEventsQueue, event.EventID, data)
}

// NewOrderEvent builds an event for order. direction is the sign of the
// stock movement per item: -1 reserved, +1 restored, 0 none.
func NewOrderEvent(eventType string, order *models.Order, direction int, at time.Time) models.OrderEvent {
	event := models.OrderEvent{
		EventID:     uuid.NewString(),
		Type:        eventType,
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		TotalAmount: order.TotalAmount,
		Status:      order.Status,
		OccurredAt:  at.UTC(),
	}

	if direction != 0 {
		for _, item := range order.Items {
			event.Items = append(event.Items, models.OrderItemEvent{
				ProductID:     item.ProductID,
				Quantity:      item.Quantity,
				StockMovement: direction * item.Quantity,
			})
		}
	}

	return event
}
