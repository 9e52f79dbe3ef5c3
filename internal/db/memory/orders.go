package memory

import (
	"context"
	"sort"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

type orderStore struct{ *tx }

func (s *orderStore) Create(ctx context.Context, order *models.Order) error {
	if _, ok := s.data.customers[order.CustomerID]; !ok {
		return &models.ReferentialConflictError{Entity: "order", Referenced: "missing customer"}
	}
	for _, item := range order.Items {
		if _, ok := s.data.products[item.ProductID]; !ok {
			return &models.ReferentialConflictError{Entity: "order item", Referenced: "missing product"}
		}
		if item.Quantity <= 0 {
			return &models.ValidationError{Field: "quantity", Reason: "must be positive"}
		}
	}

	s.data.orderSeq++
	order.ID = s.data.orderSeq
	order.CreatedAt = s.now()

	row := *order
	row.Items = nil
	s.data.orders[order.ID] = row

	for i := range order.Items {
		s.data.itemSeq++
		order.Items[i].ID = s.data.itemSeq
		order.Items[i].OrderID = order.ID
		item := order.Items[i]
		item.ProductName = ""
		s.data.items[item.ID] = item
	}
	return nil
}

func (s *orderStore) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.GetForUpdate(ctx, id)
	if err != nil || order == nil {
		return order, err
	}
	order.Items, err = s.GetItems(ctx, id)
	return order, err
}

// GetForUpdate needs no row lock: transactions are already serialized.
func (s *orderStore) GetForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	o, ok := s.data.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (s *orderStore) GetItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	for _, item := range s.data.items {
		if item.OrderID != orderID {
			continue
		}
		if p, ok := s.data.products[item.ProductID]; ok {
			item.ProductName = p.Name
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *orderStore) GetAll(ctx context.Context) ([]models.OrderSummary, error) {
	counts := make(map[int64]int)
	for _, item := range s.data.items {
		counts[item.OrderID]++
	}

	orders := make([]models.OrderSummary, 0, len(s.data.orders))
	for _, o := range s.data.orders {
		orders = append(orders, models.OrderSummary{
			ID:           o.ID,
			CustomerID:   o.CustomerID,
			CustomerName: s.data.customers[o.CustomerID].Name,
			TotalAmount:  o.TotalAmount,
			Status:       o.Status,
			ItemCount:    counts[o.ID],
			CreatedAt:    o.CreatedAt,
		})
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
	return orders, nil
}

func (s *orderStore) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) (bool, error) {
	o, ok := s.data.orders[id]
	if !ok {
		return false, nil
	}
	if !status.Valid() {
		return false, &models.ValidationError{Field: "status", Reason: "unknown order status"}
	}
	o.Status = status
	s.data.orders[id] = o
	return true, nil
}

func (s *orderStore) Delete(ctx context.Context, id int64) (bool, error) {
	for itemID, item := range s.data.items {
		if item.OrderID == id {
			delete(s.data.items, itemID)
		}
	}
	if _, ok := s.data.orders[id]; !ok {
		return false, nil
	}
	delete(s.data.orders, id)
	return true, nil
}
