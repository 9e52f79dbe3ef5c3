// Package directory owns customer records.
package directory

import (
	"context"
	"strings"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/db"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

type Directory struct {
	store db.Store
}

func New(store db.Store) *Directory {
	return &Directory{store: store}
}

func (d *Directory) Get(ctx context.Context, id int64) (*models.Customer, error) {
	var customer *models.Customer
	err := d.store.View(ctx, func(tx db.Tx) error {
		c, err := tx.Customers().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return &models.NotFoundError{Entity: "customer", ID: id}
		}
		customer = c
		return nil
	})
	return customer, err
}

func (d *Directory) List(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	err := d.store.View(ctx, func(tx db.Tx) error {
		var err error
		customers, err = tx.Customers().GetAll(ctx)
		return err
	})
	return customers, err
}

func (d *Directory) Create(ctx context.Context, req models.CreateCustomerRequest) (*models.Customer, error) {
	customer, err := customerFromRequest(req)
	if err != nil {
		return nil, err
	}

	err = d.store.WithTx(ctx, func(tx db.Tx) error {
		if err := ensureEmailFree(ctx, tx, customer); err != nil {
			return err
		}
		return tx.Customers().Create(ctx, customer)
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func (d *Directory) Update(ctx context.Context, id int64, req models.UpdateCustomerRequest) (*models.Customer, error) {
	customer, err := customerFromRequest(req)
	if err != nil {
		return nil, err
	}
	customer.ID = id

	err = d.store.WithTx(ctx, func(tx db.Tx) error {
		if err := ensureEmailFree(ctx, tx, customer); err != nil {
			return err
		}
		found, err := tx.Customers().Update(ctx, customer)
		if err != nil {
			return err
		}
		if !found {
			return &models.NotFoundError{Entity: "customer", ID: id}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// Delete refuses to remove a customer that still owns orders.
func (d *Directory) Delete(ctx context.Context, id int64) error {
	return d.store.WithTx(ctx, func(tx db.Tx) error {
		customers := tx.Customers()
		c, err := customers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return &models.NotFoundError{Entity: "customer", ID: id}
		}

		n, err := customers.CountOrders(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &models.ReferentialConflictError{Entity: "customer", ID: id, Referenced: "orders", Count: n}
		}

		found, err := customers.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return &models.NotFoundError{Entity: "customer", ID: id}
		}
		return nil
	})
}

func ensureEmailFree(ctx context.Context, tx db.Tx, c *models.Customer) error {
	if c.Email == "" {
		return nil
	}
	existing, err := tx.Customers().GetByEmail(ctx, c.Email)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != c.ID {
		return &models.ValidationError{Field: "email", Reason: "already in use"}
	}
	return nil
}

func customerFromRequest(req models.CreateCustomerRequest) (*models.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &models.ValidationError{Field: "name", Reason: "is required"}
	}

	email := strings.TrimSpace(req.Email)
	if email != "" && !strings.Contains(email, "@") {
		return nil, &models.ValidationError{Field: "email", Reason: "must contain @"}
	}

	return &models.Customer{
		Name:    name,
		Email:   email,
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	}, nil
}
