package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/db"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/db/memory"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

func TestCreateAndGet(t *testing.T) {
	d := New(memory.New())
	ctx := context.Background()

	c, err := d.Create(ctx, models.CreateCustomerRequest{Name: " Acme ", Email: "ops@acme.test", Phone: "555"})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, "Acme", c.Name)

	got, err := d.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "ops@acme.test", got.Email)

	_, err = d.Get(ctx, 999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateValidates(t *testing.T) {
	d := New(memory.New())
	ctx := context.Background()

	_, err := d.Create(ctx, models.CreateCustomerRequest{Name: ""})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = d.Create(ctx, models.CreateCustomerRequest{Name: "Acme", Email: "not-an-email"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestEmailMustBeUnique(t *testing.T) {
	d := New(memory.New())
	ctx := context.Background()

	first, err := d.Create(ctx, models.CreateCustomerRequest{Name: "Acme", Email: "ops@acme.test"})
	require.NoError(t, err)

	_, err = d.Create(ctx, models.CreateCustomerRequest{Name: "Other", Email: "Ops@Acme.test"})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	// keeping your own email is fine
	_, err = d.Update(ctx, first.ID, models.UpdateCustomerRequest{Name: "Acme Corp", Email: "ops@acme.test"})
	require.NoError(t, err)
}

func TestUpdate(t *testing.T) {
	d := New(memory.New())
	ctx := context.Background()

	c, err := d.Create(ctx, models.CreateCustomerRequest{Name: "Acme"})
	require.NoError(t, err)

	updated, err := d.Update(ctx, c.ID, models.UpdateCustomerRequest{Name: "Acme", Address: "1 Main St"})
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", updated.Address)
	assert.Equal(t, c.CreatedAt, updated.CreatedAt)

	_, err = d.Update(ctx, 999, models.UpdateCustomerRequest{Name: "Nobody"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListIsSortedByName(t *testing.T) {
	d := New(memory.New())
	ctx := context.Background()
	for _, name := range []string{"Zeta", "Alpha", "Mu"} {
		_, err := d.Create(ctx, models.CreateCustomerRequest{Name: name})
		require.NoError(t, err)
	}

	customers, err := d.List(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 3)
	assert.Equal(t, "Alpha", customers[0].Name)
	assert.Equal(t, "Zeta", customers[2].Name)
}

func TestDelete(t *testing.T) {
	store := memory.New()
	d := New(store)
	ctx := context.Background()

	free, err := d.Create(ctx, models.CreateCustomerRequest{Name: "Free"})
	require.NoError(t, err)
	busy, err := d.Create(ctx, models.CreateCustomerRequest{Name: "Busy"})
	require.NoError(t, err)

	require.NoError(t, store.WithTx(ctx, func(tx db.Tx) error {
		return tx.Orders().Create(ctx, &models.Order{CustomerID: busy.ID, Status: models.StatusNew})
	}))

	require.NoError(t, d.Delete(ctx, free.ID))
	assert.ErrorIs(t, d.Delete(ctx, free.ID), models.ErrNotFound)
	assert.ErrorIs(t, d.Delete(ctx, busy.ID), models.ErrReferentialConflict)
}
