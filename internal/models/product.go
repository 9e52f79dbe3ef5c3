package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest stock or line quantity the INTEGER columns hold.
const MaxQuantity = math.MaxInt32

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category"`
}

// UpdateProductRequest replaces every editable field of a product.
type UpdateProductRequest = CreateProductRequest

type StockRequest struct {
	Quantity int `json:"quantity"`
}

type AdjustStockRequest struct {
	Delta int `json:"delta"`
}
