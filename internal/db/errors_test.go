package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

func TestClassifyDriverErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"integer overflow", &pq.Error{Code: "22003", Message: "integer out of range"}, models.ErrValidation},
		{"duplicate email", &pq.Error{Code: "23505", Constraint: "customers_email_key"}, models.ErrValidation},
		{"check constraint", &pq.Error{Code: "23514", Constraint: "products_quantity_check"}, models.ErrValidation},
		{"referenced row", &pq.Error{Code: "23503", Table: "customers", Constraint: "orders_customer_id_fkey"}, models.ErrReferentialConflict},
		{"wrapped driver error", fmt.Errorf("exec: %w", &pq.Error{Code: "22003"}), models.ErrValidation},
		{"connection lost", errors.New("driver: bad connection"), models.ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify("op", tt.err), tt.want)
		})
	}
}

func TestClassifyFieldNames(t *testing.T) {
	var v *models.ValidationError

	require.ErrorAs(t, classify("restore stock", &pq.Error{Code: "22003"}), &v)
	assert.Equal(t, "quantity", v.Field)

	require.ErrorAs(t, classify("create customer", &pq.Error{Code: "23505", Constraint: "customers_email_key"}), &v)
	assert.Equal(t, "email", v.Field)
}

func TestClassifyPassesThroughTypedErrors(t *testing.T) {
	nf := &models.NotFoundError{Entity: "order", ID: 3}
	assert.Same(t, nf, classify("get order", nf))
	assert.NoError(t, classify("get order", nil))
}
