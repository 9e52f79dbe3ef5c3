package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderDeleted       = "order.deleted"
)

// OrderEvent is published after an order change has been committed.
type OrderEvent struct {
	EventID     string           `json:"event_id"`
	Type        string           `json:"type"`
	OrderID     int64            `json:"order_id"`
	CustomerID  int64            `json:"customer_id"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Status      OrderStatus      `json:"status"`
	OldStatus   OrderStatus      `json:"old_status,omitempty"`
	Items       []OrderItemEvent `json:"items,omitempty"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

// OrderItemEvent carries a stock movement; negative for reservations,
// positive for restorations.
type OrderItemEvent struct {
	ProductID     int64 `json:"product_id"`
	Quantity      int   `json:"quantity"`
	StockMovement int   `json:"stock_movement"`
}

// ProductIDs returns the distinct products touched by the event.
func (e OrderEvent) ProductIDs() []int64 {
	seen := make(map[int64]bool, len(e.Items))
	ids := make([]int64, 0, len(e.Items))
	for _, item := range e.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}
