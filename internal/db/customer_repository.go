package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

type CustomerRepository struct {
	db querier
}

const customerColumns = "id, name, email, phone, address, created_at"

func scanCustomer(row interface{ Scan(...any) error }, c *models.Customer) error {
	return row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt)
}

func (r *CustomerRepository) GetAll(ctx context.Context) ([]models.Customer, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+customerColumns+" FROM customers ORDER BY name, id")
	if err != nil {
		return nil, classify("query customers", err)
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		var c models.Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, classify("scan customer", err)
		}
		customers = append(customers, c)
	}

	return customers, classify("iterate customers", rows.Err())
}

func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	return r.getOne(ctx, "SELECT "+customerColumns+" FROM customers WHERE id = $1", id)
}

// GetByEmail matches case-insensitively, like the unique index.
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return r.getOne(ctx, "SELECT "+customerColumns+" FROM customers WHERE email <> '' AND lower(email) = lower($1)", email)
}

func (r *CustomerRepository) getOne(ctx context.Context, query string, arg any) (*models.Customer, error) {
	var c models.Customer
	err := scanCustomer(r.db.QueryRowContext(ctx, query, arg), &c)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get customer", err)
	}
	return &c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	query := `
		INSERT INTO customers (name, email, phone, address)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + customerColumns

	err := scanCustomer(r.db.QueryRowContext(ctx, query, c.Name, c.Email, c.Phone, c.Address), c)
	return classify("create customer", err)
}

func (r *CustomerRepository) Update(ctx context.Context, c *models.Customer) (bool, error) {
	query := `
		UPDATE customers
		SET name = $1, email = $2, phone = $3, address = $4
		WHERE id = $5
		RETURNING ` + customerColumns

	err := scanCustomer(r.db.QueryRowContext(ctx, query, c.Name, c.Email, c.Phone, c.Address, c.ID), c)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify("update customer", err)
	}
	return true, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, &models.ReferentialConflictError{Entity: "customer", ID: id, Referenced: "orders"}
		}
		return false, classify("delete customer", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, classify("delete customer", err)
	}
	return rowsAffected > 0, nil
}

func (r *CustomerRepository) CountOrders(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders WHERE customer_id = $1", id).Scan(&n)
	if err != nil {
		return 0, classify("count orders", err)
	}
	return n, nil
}
