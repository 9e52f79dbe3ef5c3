package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

type OrderRepository struct {
	db querier
}

// Create inserts a new order with items. It runs inside the caller's
// transaction; nothing is visible until that transaction commits.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	// Insert order
	orderQuery := `
		INSERT INTO orders (customer_id, total_amount, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_date
	`
	err := r.db.QueryRowContext(ctx, orderQuery, order.CustomerID, order.TotalAmount, order.Status).
		Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		return classify("insert order", err)
	}

	// Insert order items
	itemQuery := `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		err = r.db.QueryRowContext(ctx, itemQuery,
			order.ID,
			order.Items[i].ProductID,
			order.Items[i].Quantity,
			order.Items[i].Price,
		).Scan(&order.Items[i].ID)
		if err != nil {
			return classify("insert order item", err)
		}
	}

	return nil
}

// GetAll returns order summaries, newest first
func (r *OrderRepository) GetAll(ctx context.Context) ([]models.OrderSummary, error) {
	query := `
		SELECT o.id, o.customer_id, c.name, o.total_amount, o.status, o.created_date,
		       (SELECT COUNT(*) FROM order_items i WHERE i.order_id = o.id)
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		ORDER BY o.created_date DESC, o.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("query orders", err)
	}
	defer rows.Close()

	orders := []models.OrderSummary{}
	for rows.Next() {
		var o models.OrderSummary
		err := rows.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.TotalAmount, &o.Status, &o.CreatedAt, &o.ItemCount)
		if err != nil {
			return nil, classify("scan order", err)
		}
		orders = append(orders, o)
	}

	return orders, classify("iterate orders", rows.Err())
}

// GetByID returns a single order with items
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	order, err := r.getOrder(ctx, `SELECT id, customer_id, total_amount, status, created_date FROM orders WHERE id = $1`, id)
	if err != nil || order == nil {
		return order, err
	}

	order.Items, err = r.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) GetForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	return r.getOrder(ctx, `SELECT id, customer_id, total_amount, status, created_date FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepository) getOrder(ctx context.Context, query string, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&order.ID, &order.CustomerID, &order.TotalAmount, &order.Status, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get order", err)
	}
	return &order, nil
}

func (r *OrderRepository) GetItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	query := `
		SELECT i.id, i.order_id, i.product_id, COALESCE(p.name, ''), i.quantity, i.price
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY i.id
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, classify("query order items", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.Price)
		if err != nil {
			return nil, classify("scan order item", err)
		}
		items = append(items, item)
	}

	return items, classify("iterate order items", rows.Err())
}

// UpdateStatus updates order status
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return false, classify("update order", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, classify("update order", err)
	}
	return rowsAffected > 0, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id int64) (bool, error) {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return false, classify("delete order items", err)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return false, classify("delete order", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, classify("delete order", err)
	}
	return rowsAffected > 0, nil
}
