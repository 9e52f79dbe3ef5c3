package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

type fakeInvalidator struct {
	mu    sync.Mutex
	calls [][]int64
	err   error
}

func (f *fakeInvalidator) InvalidateProducts(ctx context.Context, ids ...int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ids)
	return f.err
}

// fakeAcknowledger records what the consumer decided per delivery tag.
type fakeAcknowledger struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func eventBody(t *testing.T, event models.OrderEvent) []byte {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return data
}

func TestHandleInvalidatesTouchedProducts(t *testing.T) {
	inv := &fakeInvalidator{}
	c := NewStockCacheConsumer(inv)

	for _, eventType := range []string{models.EventOrderCreated, models.EventOrderDeleted} {
		event, err := c.Handle(context.Background(), eventBody(t, models.OrderEvent{
			Type:    eventType,
			OrderID: 7,
			Items:   []models.OrderItemEvent{{ProductID: 1, Quantity: 2}, {ProductID: 3, Quantity: 1}},
		}))
		require.NoError(t, err)
		assert.Equal(t, int64(7), event.OrderID)
	}

	assert.Equal(t, [][]int64{{1, 3}, {1, 3}}, inv.calls)
}

func TestHandleStatusChangeIsNoop(t *testing.T) {
	inv := &fakeInvalidator{}
	c := NewStockCacheConsumer(inv)

	_, err := c.Handle(context.Background(), eventBody(t, models.OrderEvent{
		Type:      models.EventOrderStatusChanged,
		OrderID:   7,
		Status:    models.StatusShipped,
		OldStatus: models.StatusNew,
	}))
	require.NoError(t, err)
	assert.Empty(t, inv.calls)
}

func TestHandleRejectsMalformed(t *testing.T) {
	c := NewStockCacheConsumer(&fakeInvalidator{})

	_, err := c.Handle(context.Background(), []byte("{not json"))
	assert.ErrorIs(t, err, ErrMalformedEvent)

	_, err = c.Handle(context.Background(), eventBody(t, models.OrderEvent{Type: "order.archived"}))
	assert.ErrorIs(t, err, ErrMalformedEvent)
}

func TestProcessOrderEventsAcksAndNacks(t *testing.T) {
	defer goleak.VerifyNone(t)

	inv := &fakeInvalidator{}
	c := NewStockCacheConsumer(inv)
	ack := &fakeAcknowledger{}

	created := eventBody(t, models.OrderEvent{Type: models.EventOrderCreated, OrderID: 1, Items: []models.OrderItemEvent{{ProductID: 5, Quantity: 1}}})

	messages := make(chan amqp.Delivery, 3)
	messages <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: created}
	messages <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte("garbage")}
	close(messages)

	done := make(chan struct{})
	go func() {
		c.ProcessOrderEvents(context.Background(), messages)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after the channel closed")
	}

	assert.Equal(t, []uint64{1}, ack.acked)
	assert.Equal(t, []uint64{2}, ack.nacked)
	assert.Equal(t, []bool{false}, ack.requeue)
}

func TestProcessOrderEventsRequeuesTransientFailures(t *testing.T) {
	defer goleak.VerifyNone(t)

	inv := &fakeInvalidator{err: errors.New("redis unavailable")}
	c := NewStockCacheConsumer(inv)
	ack := &fakeAcknowledger{}

	messages := make(chan amqp.Delivery, 1)
	messages <- amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  9,
		Body:         eventBody(t, models.OrderEvent{Type: models.EventOrderDeleted, OrderID: 2, Items: []models.OrderItemEvent{{ProductID: 4, Quantity: 1}}}),
	}
	close(messages)

	c.ProcessOrderEvents(context.Background(), messages)

	assert.Empty(t, ack.acked)
	assert.Equal(t, []uint64{9}, ack.nacked)
	assert.Equal(t, []bool{true}, ack.requeue)
}

func TestProcessOrderEventsStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := NewStockCacheConsumer(&fakeInvalidator{})
	ctx, cancel := context.WithCancel(context.Background())
	messages := make(chan amqp.Delivery)

	done := make(chan struct{})
	go func() {
		c.ProcessOrderEvents(ctx, messages)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}
