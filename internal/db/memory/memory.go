// Package memory is an in-process db.Store. Transactions run one at a time
// against a private copy of the data, which replaces the live copy only when
// the transaction function returns nil.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/db"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

type Store struct {
	mu    sync.RWMutex
	data  *state
	clock func() time.Time
}

func New() *Store {
	return &Store{data: newState(), clock: time.Now}
}

// WithClock overrides the time source used for created_at stamps.
func (s *Store) WithClock(clock func() time.Time) *Store {
	s.clock = clock
	return s
}

func (s *Store) WithTx(ctx context.Context, fn func(tx db.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return &models.StorageError{Op: "begin transaction", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&tx{data: work, clock: s.clock}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &models.StorageError{Op: "commit transaction", Err: err}
	}

	s.data = work
	return nil
}

// View runs fn against a snapshot. Writes made through the snapshot are
// discarded.
func (s *Store) View(ctx context.Context, fn func(tx db.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return &models.StorageError{Op: "begin transaction", Err: err}
	}

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	return fn(&tx{data: snapshot, clock: s.clock})
}

type state struct {
	products  map[int64]models.Product
	customers map[int64]models.Customer
	orders    map[int64]models.Order
	items     map[int64]models.OrderItem

	productSeq  int64
	customerSeq int64
	orderSeq    int64
	itemSeq     int64
}

func newState() *state {
	return &state{
		products:  make(map[int64]models.Product),
		customers: make(map[int64]models.Customer),
		orders:    make(map[int64]models.Order),
		items:     make(map[int64]models.OrderItem),
	}
}

// clone copies the maps. Stored records hold no shared slices, so a
// shallow copy of each value is enough.
func (s *state) clone() *state {
	c := &state{
		products:    make(map[int64]models.Product, len(s.products)),
		customers:   make(map[int64]models.Customer, len(s.customers)),
		orders:      make(map[int64]models.Order, len(s.orders)),
		items:       make(map[int64]models.OrderItem, len(s.items)),
		productSeq:  s.productSeq,
		customerSeq: s.customerSeq,
		orderSeq:    s.orderSeq,
		itemSeq:     s.itemSeq,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	return c
}

type tx struct {
	data  *state
	clock func() time.Time
}

func (t *tx) Products() db.ProductStore   { return &productStore{t} }
func (t *tx) Customers() db.CustomerStore { return &customerStore{t} }
func (t *tx) Orders() db.OrderStore       { return &orderStore{t} }

func (t *tx) now() time.Time {
	return t.clock().UTC().Truncate(time.Microsecond)
}
