package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/catalog"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/db/memory"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/directory"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

type recordingNotifier struct {
	mu       sync.Mutex
	created  []int64
	changed  []models.OrderStatus
	deleted  []int64
	failWith error
}

func (n *recordingNotifier) OrderCreated(ctx context.Context, order *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, order.ID)
	return n.failWith
}

func (n *recordingNotifier) OrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, previous, order.Status)
	return n.failWith
}

func (n *recordingNotifier) OrderDeleted(ctx context.Context, order *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, order.ID)
	return n.failWith
}

type LedgerTestSuite struct {
	suite.Suite
	ctx      context.Context
	catalog  *catalog.Catalog
	ledger   *Ledger
	notifier *recordingNotifier

	customer *models.Customer
	a        *models.Product
	b        *models.Product
}

func (s *LedgerTestSuite) SetupTest() {
	s.ctx = context.Background()
	store := memory.New()
	s.catalog = catalog.New(store)
	s.notifier = &recordingNotifier{}
	s.ledger = New(store, s.catalog).WithNotifier(s.notifier)

	var err error
	s.customer, err = directory.New(store).Create(s.ctx, models.CreateCustomerRequest{Name: "Acme", Email: "ops@acme.test"})
	s.Require().NoError(err)

	s.a = s.product("A", "5.00", 10)
	s.b = s.product("B", "2.50", 4)
}

func (s *LedgerTestSuite) product(name, price string, qty int) *models.Product {
	p, err := s.catalog.Create(s.ctx, models.CreateProductRequest{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
	})
	s.Require().NoError(err)
	return p
}

func (s *LedgerTestSuite) stock(id int64) int {
	p, err := s.catalog.Get(s.ctx, id)
	s.Require().NoError(err)
	return p.Quantity
}

func (s *LedgerTestSuite) orderCount() int {
	orders, err := s.ledger.List(s.ctx)
	s.Require().NoError(err)
	return len(orders)
}

func (s *LedgerTestSuite) create(lines ...models.CreateOrderItemRequest) (*models.Order, error) {
	return s.ledger.Create(s.ctx, models.CreateOrderRequest{CustomerID: s.customer.ID, Items: lines})
}

func line(productID int64, qty int) models.CreateOrderItemRequest {
	return models.CreateOrderItemRequest{ProductID: productID, Quantity: qty}
}

func (s *LedgerTestSuite) TestCreateMultiItem() {
	order, err := s.create(line(s.a.ID, 2), line(s.b.ID, 1))
	s.Require().NoError(err)

	s.Equal(models.StatusNew, order.Status)
	s.True(decimal.RequireFromString("12.50").Equal(order.TotalAmount), order.TotalAmount.String())
	s.True(order.TotalAmount.Equal(models.SumItems(order.Items)))
	s.Require().Len(order.Items, 2)
	s.True(s.a.Price.Equal(order.Items[0].Price))
	s.True(s.b.Price.Equal(order.Items[1].Price))

	s.Equal(8, s.stock(s.a.ID))
	s.Equal(3, s.stock(s.b.ID))

	detail, err := s.ledger.View(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Len(detail.Lines, 2)
	s.Equal([]int64{order.ID}, s.notifier.created)
}

func (s *LedgerTestSuite) TestCreateInsufficientStock() {
	p := s.product("P", "1.00", 3)

	_, err := s.create(line(p.ID, 5))
	var stock *models.InsufficientStockError
	s.Require().ErrorAs(err, &stock)
	s.Equal(p.ID, stock.ProductID)
	s.Equal(3, stock.Available)
	s.Equal(5, stock.Requested)

	s.Equal(3, s.stock(p.ID))
	s.Zero(s.orderCount())
	s.Empty(s.notifier.created)
}

func (s *LedgerTestSuite) TestLaterLineFailureRollsBackEarlierReservations() {
	_, err := s.create(line(s.a.ID, 2), line(s.b.ID, 5))
	s.ErrorIs(err, models.ErrInsufficientStock)

	s.Equal(10, s.stock(s.a.ID))
	s.Equal(4, s.stock(s.b.ID))
	s.Zero(s.orderCount())
}

func (s *LedgerTestSuite) TestCreateRejectsDuplicateLines() {
	_, err := s.create(line(s.a.ID, 1), line(s.a.ID, 2))
	s.ErrorIs(err, models.ErrValidation)
	s.Equal(10, s.stock(s.a.ID))
	s.Zero(s.orderCount())
}

func (s *LedgerTestSuite) TestCreateValidation() {
	_, err := s.create()
	s.ErrorIs(err, models.ErrValidation)

	_, err = s.create(line(s.a.ID, 0))
	s.ErrorIs(err, models.ErrValidation)

	_, err = s.create(line(s.a.ID, -2))
	s.ErrorIs(err, models.ErrValidation)

	_, err = s.ledger.Create(s.ctx, models.CreateOrderRequest{Items: []models.CreateOrderItemRequest{line(s.a.ID, 1)}})
	s.ErrorIs(err, models.ErrValidation)

	s.Equal(10, s.stock(s.a.ID))
}

func (s *LedgerTestSuite) TestCreateUnknownCustomerOrProduct() {
	_, err := s.ledger.Create(s.ctx, models.CreateOrderRequest{CustomerID: 999, Items: []models.CreateOrderItemRequest{line(s.a.ID, 1)}})
	var nf *models.NotFoundError
	s.Require().ErrorAs(err, &nf)
	s.Equal("customer", nf.Entity)

	_, err = s.create(line(s.a.ID, 1), line(999, 1))
	s.Require().ErrorAs(err, &nf)
	s.Equal("product", nf.Entity)
	s.Equal(10, s.stock(s.a.ID))
}

func (s *LedgerTestSuite) TestSnapshotPriceSurvivesCatalogEdit() {
	order, err := s.create(line(s.a.ID, 2))
	s.Require().NoError(err)

	_, err = s.catalog.Update(s.ctx, s.a.ID, models.UpdateProductRequest{
		Name:     "A",
		Price:    decimal.RequireFromString("9.99"),
		Quantity: 8,
	})
	s.Require().NoError(err)

	detail, err := s.ledger.View(s.ctx, order.ID)
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("5.00").Equal(detail.Lines[0].Price))
	s.True(decimal.RequireFromString("10.00").Equal(detail.Lines[0].Subtotal))
	s.True(decimal.RequireFromString("10.00").Equal(detail.TotalAmount))
}

func (s *LedgerTestSuite) TestDeleteRestoresStock() {
	order, err := s.create(line(s.a.ID, 2), line(s.b.ID, 4))
	s.Require().NoError(err)
	s.Equal(0, s.stock(s.b.ID))

	deleted, err := s.ledger.Delete(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Len(deleted.Items, 2)

	s.Equal(10, s.stock(s.a.ID))
	s.Equal(4, s.stock(s.b.ID))
	s.Zero(s.orderCount())

	_, err = s.ledger.View(s.ctx, order.ID)
	s.ErrorIs(err, models.ErrNotFound)
	s.Equal([]int64{order.ID}, s.notifier.deleted)

	// the product is no longer referenced
	s.NoError(s.catalog.Delete(s.ctx, s.b.ID))
}

func (s *LedgerTestSuite) TestDeleteMissingOrder() {
	_, err := s.ledger.Delete(s.ctx, 999)
	s.ErrorIs(err, models.ErrNotFound)
	s.Equal(10, s.stock(s.a.ID))
	s.Empty(s.notifier.deleted)
}

func (s *LedgerTestSuite) TestDeleteTwiceRestoresOnce() {
	order, err := s.create(line(s.a.ID, 3))
	s.Require().NoError(err)

	_, err = s.ledger.Delete(s.ctx, order.ID)
	s.Require().NoError(err)
	_, err = s.ledger.Delete(s.ctx, order.ID)
	s.ErrorIs(err, models.ErrNotFound)

	s.Equal(10, s.stock(s.a.ID))
}

func (s *LedgerTestSuite) TestChangeStatusOnlyTouchesStatus() {
	order, err := s.create(line(s.a.ID, 2), line(s.b.ID, 1))
	s.Require().NoError(err)

	updated, err := s.ledger.ChangeStatus(s.ctx, order.ID, models.StatusDelivered)
	s.Require().NoError(err)
	s.Equal(models.StatusDelivered, updated.Status)

	detail, err := s.ledger.View(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusDelivered, detail.Status)
	s.True(order.TotalAmount.Equal(detail.TotalAmount))
	s.Len(detail.Lines, 2)
	s.Equal(8, s.stock(s.a.ID))
	s.Equal(3, s.stock(s.b.ID))
	s.Equal([]models.OrderStatus{models.StatusNew, models.StatusDelivered}, s.notifier.changed)

	// unrestricted: back to New is allowed
	_, err = s.ledger.ChangeStatus(s.ctx, order.ID, models.StatusNew)
	s.NoError(err)

	_, err = s.ledger.ChangeStatus(s.ctx, 999, models.StatusShipped)
	s.ErrorIs(err, models.ErrNotFound)

	_, err = s.ledger.ChangeStatus(s.ctx, order.ID, models.OrderStatus("Lost"))
	s.ErrorIs(err, models.ErrValidation)
}

func (s *LedgerTestSuite) TestCancelledKeepsStockReserved() {
	order, err := s.create(line(s.a.ID, 2))
	s.Require().NoError(err)

	_, err = s.ledger.ChangeStatus(s.ctx, order.ID, models.StatusCancelled)
	s.Require().NoError(err)
	s.Equal(8, s.stock(s.a.ID))
}

func (s *LedgerTestSuite) TestMonotonicPolicy() {
	s.ledger.WithPolicy(MonotonicPolicy{})
	order, err := s.create(line(s.a.ID, 1))
	s.Require().NoError(err)

	_, err = s.ledger.ChangeStatus(s.ctx, order.ID, models.StatusShipped)
	s.Require().NoError(err)

	_, err = s.ledger.ChangeStatus(s.ctx, order.ID, models.StatusInProcessing)
	s.ErrorIs(err, models.ErrValidation)

	_, err = s.ledger.ChangeStatus(s.ctx, order.ID, models.StatusCancelled)
	s.Require().NoError(err)

	_, err = s.ledger.ChangeStatus(s.ctx, order.ID, models.StatusDelivered)
	s.ErrorIs(err, models.ErrValidation)

	detail, err := s.ledger.View(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, detail.Status)
}

func (s *LedgerTestSuite) TestNotifierFailureKeepsCommittedOrder() {
	s.notifier.failWith = errors.New("broker down")

	order, err := s.create(line(s.a.ID, 1))
	s.Require().NoError(err)
	s.Equal(1, s.orderCount())
	s.Equal([]int64{order.ID}, s.notifier.created)
}

func (s *LedgerTestSuite) TestReadsDoNotMutate() {
	order, err := s.create(line(s.a.ID, 2))
	s.Require().NoError(err)

	for i := 0; i < 3; i++ {
		_, err := s.ledger.View(s.ctx, order.ID)
		s.Require().NoError(err)
		_, err = s.ledger.List(s.ctx)
		s.Require().NoError(err)
	}
	s.Equal(8, s.stock(s.a.ID))
	s.Equal(1, s.orderCount())
}

func (s *LedgerTestSuite) TestListNewestFirst() {
	first, err := s.create(line(s.a.ID, 1))
	s.Require().NoError(err)
	second, err := s.create(line(s.b.ID, 1))
	s.Require().NoError(err)

	orders, err := s.ledger.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(orders, 2)
	s.Equal(second.ID, orders[0].ID)
	s.Equal(first.ID, orders[1].ID)
	s.Equal("Acme", orders[0].CustomerName)
}

func (s *LedgerTestSuite) TestConcurrentCreatesNeverOversell() {
	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.create(line(s.b.ID, 3))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			s.ErrorIs(err, models.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(1, s.stock(s.b.ID))
}

func TestLedgerTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}
