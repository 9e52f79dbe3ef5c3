package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
	"github.com/shopspring/decimal"
)

type ProductRepository struct {
	db querier
}

const productColumns = "id, name, description, price, quantity, category, created_at"

func scanProduct(row interface{ Scan(...any) error }, p *models.Product) error {
	return row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &p.Category, &p.CreatedAt)
}

// GetAll returns all products
func (r *ProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	query := "SELECT " + productColumns + " FROM products ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("query products", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, classify("scan product", err)
		}
		products = append(products, p)
	}

	return products, classify("iterate products", rows.Err())
}

// GetByID returns a single product
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE id = $1"

	var p models.Product
	err := scanProduct(r.db.QueryRowContext(ctx, query, id), &p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get product", err)
	}

	return &p, nil
}

// Create inserts a new product
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (name, description, price, quantity, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + productColumns

	err := scanProduct(r.db.QueryRowContext(ctx, query, p.Name, p.Description, p.Price, p.Quantity, p.Category), p)
	return classify("create product", err)
}

func (r *ProductRepository) Update(ctx context.Context, p *models.Product) (bool, error) {
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, quantity = $4, category = $5
		WHERE id = $6
		RETURNING ` + productColumns

	err := scanProduct(r.db.QueryRowContext(ctx, query, p.Name, p.Description, p.Price, p.Quantity, p.Category, p.ID), p)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify("update product", err)
	}
	return true, nil
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, &models.ReferentialConflictError{Entity: "product", ID: id, Referenced: "order items"}
		}
		return false, classify("delete product", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, classify("delete product", err)
	}
	return rowsAffected > 0, nil
}

// TakeStock is a single conditional update, so two concurrent reservations
// of the same product cannot both pass the stock check.
func (r *ProductRepository) TakeStock(ctx context.Context, id int64, qty int) (decimal.Decimal, bool, error) {
	query := `
		UPDATE products
		SET quantity = quantity - $2
		WHERE id = $1 AND quantity >= $2
		RETURNING price
	`

	var price decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, id, qty).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, classify("reserve stock", err)
	}
	return price, true, nil
}

func (r *ProductRepository) AddStock(ctx context.Context, id int64, qty int) (bool, error) {
	result, err := r.db.ExecContext(ctx, "UPDATE products SET quantity = quantity + $2 WHERE id = $1", id, qty)
	if err != nil {
		return false, classify("restore stock", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, classify("restore stock", err)
	}
	return rowsAffected > 0, nil
}

func (r *ProductRepository) CountOrderItems(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM order_items WHERE product_id = $1", id).Scan(&n)
	if err != nil {
		return 0, classify("count order items", err)
	}
	return n, nil
}
