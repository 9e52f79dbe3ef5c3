package db

import (
	"context"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
	"github.com/shopspring/decimal"
)

// Store hands out scoped units of work. The Tx passed to fn is only valid
// until fn returns; WithTx commits when fn returns nil and rolls back on any
// error or panic.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

type Tx interface {
	Products() ProductStore
	Customers() CustomerStore
	Orders() OrderStore
}

// Lookups return (nil, nil) when the row does not exist.
type ProductStore interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)

	// TakeStock decrements stock only if at least qty units are available
	// and returns the unit price at that instant. ok is false when the
	// product is missing or short.
	TakeStock(ctx context.Context, id int64, qty int) (price decimal.Decimal, ok bool, err error)
	AddStock(ctx context.Context, id int64, qty int) (bool, error)
	CountOrderItems(ctx context.Context, id int64) (int, error)
}

type CustomerStore interface {
	GetAll(ctx context.Context) ([]models.Customer, error)
	GetByID(ctx context.Context, id int64) (*models.Customer, error)
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
	Create(ctx context.Context, c *models.Customer) error
	Update(ctx context.Context, c *models.Customer) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	CountOrders(ctx context.Context, id int64) (int, error)
}

type OrderStore interface {
	// Create inserts the order row and one row per item, filling in ids.
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	// GetForUpdate loads the order row (without items) and locks it until
	// the enclosing transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*models.Order, error)
	GetItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	GetAll(ctx context.Context) ([]models.OrderSummary, error)
	UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) (bool, error)
	// Delete removes the order's items and then the order row.
	Delete(ctx context.Context, id int64) (bool, error)
}
