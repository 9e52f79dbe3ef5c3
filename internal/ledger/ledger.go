// Package ledger owns orders and their items. Creating an order reserves
// stock for every line and deleting it restores that stock, each as one
// transaction.
package ledger

import (
	"context"
	"fmt"
	"log"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/catalog"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/db"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

// Notifier is told about changes after they are committed. Its errors are
// logged and never undo the change.
type Notifier interface {
	OrderCreated(ctx context.Context, order *models.Order) error
	OrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error
	OrderDeleted(ctx context.Context, order *models.Order) error
}

type Ledger struct {
	store    db.Store
	catalog  *catalog.Catalog
	policy   StatusPolicy
	notifier Notifier
}

func New(store db.Store, cat *catalog.Catalog) *Ledger {
	return &Ledger{
		store:   store,
		catalog: cat,
		policy:  UnrestrictedPolicy{},
	}
}

func (l *Ledger) WithPolicy(policy StatusPolicy) *Ledger {
	l.policy = policy
	return l
}

func (l *Ledger) WithNotifier(n Notifier) *Ledger {
	l.notifier = n
	return l
}

// Create reserves stock for every requested line in request order, then
// stores the order with status New and a total frozen from the captured
// prices. Any failure rolls back every reservation made so far.
func (l *Ledger) Create(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	var order *models.Order
	err := l.store.WithTx(ctx, func(tx db.Tx) error {
		customer, err := tx.Customers().GetByID(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return &models.NotFoundError{Entity: "customer", ID: req.CustomerID}
		}

		o := &models.Order{
			CustomerID: req.CustomerID,
			Status:     models.StatusNew,
			Items:      make([]models.OrderItem, 0, len(req.Items)),
		}
		for _, line := range req.Items {
			price, err := l.catalog.ReserveStockTx(ctx, tx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			o.Items = append(o.Items, models.OrderItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     price,
			})
		}
		o.TotalAmount = models.SumItems(o.Items)

		if err := tx.Orders().Create(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.stockMoved(ctx, order)
	if l.notifier != nil {
		if err := l.notifier.OrderCreated(ctx, order); err != nil {
			log.Printf("⚠️ Failed to publish creation of order #%d: %v", order.ID, err)
		}
	}
	return order, nil
}

// ChangeStatus updates the status field only. Stock is not touched.
func (l *Ledger) ChangeStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	var (
		order    *models.Order
		previous models.OrderStatus
	)
	err := l.store.WithTx(ctx, func(tx db.Tx) error {
		orders := tx.Orders()
		o, err := orders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return &models.NotFoundError{Entity: "order", ID: id}
		}
		if err := l.policy.Allow(o.Status, status); err != nil {
			return err
		}

		found, err := orders.UpdateStatus(ctx, id, status)
		if err != nil {
			return err
		}
		if !found {
			return &models.NotFoundError{Entity: "order", ID: id}
		}

		previous = o.Status
		o.Status = status
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if l.notifier != nil {
		if err := l.notifier.OrderStatusChanged(ctx, order, previous); err != nil {
			log.Printf("⚠️ Failed to publish status change of order #%d: %v", order.ID, err)
		}
	}
	return order, nil
}

// Delete restores exactly the quantities recorded on the order's items and
// removes the items and the order. A missing order writes nothing.
func (l *Ledger) Delete(ctx context.Context, id int64) (*models.Order, error) {
	var order *models.Order
	err := l.store.WithTx(ctx, func(tx db.Tx) error {
		orders := tx.Orders()
		o, err := orders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return &models.NotFoundError{Entity: "order", ID: id}
		}

		o.Items, err = orders.GetItems(ctx, id)
		if err != nil {
			return err
		}
		for _, item := range o.Items {
			if err := l.catalog.RestoreStockTx(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("failed to restore stock for order #%d: %w", id, err)
			}
		}

		found, err := orders.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return &models.NotFoundError{Entity: "order", ID: id}
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.stockMoved(ctx, order)
	if l.notifier != nil {
		if err := l.notifier.OrderDeleted(ctx, order); err != nil {
			log.Printf("⚠️ Failed to publish deletion of order #%d: %v", order.ID, err)
		}
	}
	return order, nil
}

// View returns the order with its customer and lines. Line subtotals are
// recomputed from quantity and captured price.
func (l *Ledger) View(ctx context.Context, id int64) (*models.OrderDetail, error) {
	var detail *models.OrderDetail
	err := l.store.View(ctx, func(tx db.Tx) error {
		o, err := tx.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return &models.NotFoundError{Entity: "order", ID: id}
		}

		customer, err := tx.Customers().GetByID(ctx, o.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return &models.NotFoundError{Entity: "customer", ID: o.CustomerID}
		}

		detail = &models.OrderDetail{
			ID:          o.ID,
			TotalAmount: o.TotalAmount,
			Status:      o.Status,
			CreatedAt:   o.CreatedAt,
			Customer:    *customer,
			Lines:       make([]models.OrderLine, 0, len(o.Items)),
		}
		for _, item := range o.Items {
			detail.Lines = append(detail.Lines, models.OrderLine{OrderItem: item, Subtotal: item.Subtotal()})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (l *Ledger) List(ctx context.Context) ([]models.OrderSummary, error) {
	var orders []models.OrderSummary
	err := l.store.View(ctx, func(tx db.Tx) error {
		var err error
		orders, err = tx.Orders().GetAll(ctx)
		return err
	})
	return orders, err
}

// stockMoved drops cached copies of the products an order touched. The
// order events consumer repeats this for caches shared with other instances.
func (l *Ledger) stockMoved(ctx context.Context, order *models.Order) {
	ids := make([]int64, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	if err := l.catalog.InvalidateProducts(ctx, ids...); err != nil {
		log.Printf("⚠️ Failed to invalidate cache for order #%d: %v", order.ID, err)
	}
}

// validateCreate rejects bad requests before any stock is touched. A second
// line for the same product is an error, not a merge.
func validateCreate(req models.CreateOrderRequest) error {
	if req.CustomerID <= 0 {
		return &models.ValidationError{Field: "customer_id", Reason: "is required"}
	}
	if len(req.Items) == 0 {
		return &models.ValidationError{Field: "items", Reason: "order needs at least one item"}
	}

	seen := make(map[int64]bool, len(req.Items))
	for i, line := range req.Items {
		if line.ProductID <= 0 {
			return &models.ValidationError{Field: fmt.Sprintf("items[%d].product_id", i), Reason: "is required"}
		}
		if line.Quantity <= 0 {
			return &models.ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Reason: "must be positive"}
		}
		// lines above MaxQuantity are reported by the reservation as
		// insufficient stock
		if seen[line.ProductID] {
			return &models.ValidationError{Field: fmt.Sprintf("items[%d].product_id", i), Reason: fmt.Sprintf("product %d is already in the order", line.ProductID)}
		}
		seen[line.ProductID] = true
	}
	return nil
}
