// Package catalog owns product identity, price and available stock.
package catalog

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/db"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
	"github.com/shopspring/decimal"
)

// Cache is the subset of the Redis cache the catalog needs. Any Get error is
// treated as a miss.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// patternDeleter is implemented by caches that can drop keys by glob, such
// as *cache.RedisCache.
type patternDeleter interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type Catalog struct {
	store db.Store
	cache Cache
	// generation counts invalidations. A read-through fill is skipped when
	// an invalidation happened while the value was being loaded.
	generation atomic.Uint64
}

func New(store db.Store) *Catalog {
	return &Catalog{store: store}
}

// WithCache enables read-through caching of Get and List.
func (c *Catalog) WithCache(cache Cache) *Catalog {
	c.cache = cache
	return c
}

// Get returns a product or a NotFoundError.
func (c *Catalog) Get(ctx context.Context, id int64) (*models.Product, error) {
	if c.cache != nil {
		var cached models.Product
		if err := c.cache.Get(ctx, ProductKey(id), &cached); err == nil {
			return &cached, nil
		}
	}

	gen := c.generation.Load()
	var product *models.Product
	err := c.store.View(ctx, func(tx db.Tx) error {
		p, err := tx.Products().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return &models.NotFoundError{Entity: "product", ID: id}
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.remember(ctx, gen, ProductKey(id), product)
	return product, nil
}

func (c *Catalog) List(ctx context.Context) ([]models.Product, error) {
	if c.cache != nil {
		var cached []models.Product
		if err := c.cache.Get(ctx, AllProductsKey, &cached); err == nil {
			return cached, nil
		}
	}

	gen := c.generation.Load()
	var products []models.Product
	err := c.store.View(ctx, func(tx db.Tx) error {
		var err error
		products, err = tx.Products().GetAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.remember(ctx, gen, AllProductsKey, products)
	return products, nil
}

func (c *Catalog) Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	product, err := productFromRequest(req)
	if err != nil {
		return nil, err
	}

	err = c.store.WithTx(ctx, func(tx db.Tx) error {
		return tx.Products().Create(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx)
	return product, nil
}

// Update replaces the editable fields, including stock, as a manual edit.
func (c *Catalog) Update(ctx context.Context, id int64, req models.UpdateProductRequest) (*models.Product, error) {
	product, err := productFromRequest(req)
	if err != nil {
		return nil, err
	}
	product.ID = id

	err = c.store.WithTx(ctx, func(tx db.Tx) error {
		found, err := tx.Products().Update(ctx, product)
		if err != nil {
			return err
		}
		if !found {
			return &models.NotFoundError{Entity: "product", ID: id}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, id)
	return product, nil
}

// Delete refuses to remove a product that order items still reference.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	err := c.store.WithTx(ctx, func(tx db.Tx) error {
		products := tx.Products()
		p, err := products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return &models.NotFoundError{Entity: "product", ID: id}
		}

		n, err := products.CountOrderItems(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &models.ReferentialConflictError{Entity: "product", ID: id, Referenced: "order items", Count: n}
		}

		found, err := products.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return &models.NotFoundError{Entity: "product", ID: id}
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.invalidate(ctx, id)
	return nil
}

// ReserveStockTx takes qty units inside the caller's transaction and returns
// the unit price at that instant. On InsufficientStock nothing is changed.
func (c *Catalog) ReserveStockTx(ctx context.Context, tx db.Tx, id int64, qty int) (decimal.Decimal, error) {
	if qty <= 0 {
		return decimal.Zero, &models.ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	products := tx.Products()
	// No stock level can cover more than MaxQuantity; skip the update so the
	// column type never overflows and report the shortfall below.
	if qty <= models.MaxQuantity {
		price, ok, err := products.TakeStock(ctx, id, qty)
		if err != nil {
			return decimal.Zero, err
		}
		if ok {
			return price, nil
		}
	}

	// The conditional update matched nothing: tell missing from short.
	p, err := products.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	if p == nil {
		return decimal.Zero, &models.NotFoundError{Entity: "product", ID: id}
	}
	return decimal.Zero, &models.InsufficientStockError{ProductID: id, Available: p.Quantity, Requested: qty}
}

// RestoreStockTx gives back qty units inside the caller's transaction. It is
// not idempotent; call it once per reserved unit.
func (c *Catalog) RestoreStockTx(ctx context.Context, tx db.Tx, id int64, qty int) error {
	if qty <= 0 {
		return &models.ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if qty > models.MaxQuantity {
		return &models.ValidationError{Field: "quantity", Reason: fmt.Sprintf("must not exceed %d", models.MaxQuantity)}
	}

	found, err := tx.Products().AddStock(ctx, id, qty)
	if err != nil {
		return err
	}
	if !found {
		return &models.NotFoundError{Entity: "product", ID: id}
	}
	return nil
}

// ReserveStock is the auto-committed form of ReserveStockTx.
func (c *Catalog) ReserveStock(ctx context.Context, id int64, qty int) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := c.store.WithTx(ctx, func(tx db.Tx) error {
		var err error
		price, err = c.ReserveStockTx(ctx, tx, id, qty)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	c.invalidate(ctx, id)
	return price, nil
}

// RestoreStock is the auto-committed form of RestoreStockTx.
func (c *Catalog) RestoreStock(ctx context.Context, id int64, qty int) error {
	err := c.store.WithTx(ctx, func(tx db.Tx) error {
		return c.RestoreStockTx(ctx, tx, id, qty)
	})
	if err != nil {
		return err
	}

	c.invalidate(ctx, id)
	return nil
}

// AdjustStock applies a signed manual correction. A decrease below zero is
// refused with InsufficientStock.
func (c *Catalog) AdjustStock(ctx context.Context, id int64, delta int) (*models.Product, error) {
	if delta == 0 {
		return nil, &models.ValidationError{Field: "delta", Reason: "must not be zero"}
	}

	var product *models.Product
	err := c.store.WithTx(ctx, func(tx db.Tx) error {
		var err error
		if delta < 0 {
			_, err = c.ReserveStockTx(ctx, tx, id, -delta)
		} else {
			err = c.RestoreStockTx(ctx, tx, id, delta)
		}
		if err != nil {
			return err
		}

		product, err = tx.Products().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, id)
	return product, nil
}

// InvalidateProducts drops cached entries for ids and the product list.
func (c *Catalog) InvalidateProducts(ctx context.Context, ids ...int64) error {
	c.generation.Add(1)
	if c.cache == nil {
		return nil
	}
	keys := []string{AllProductsKey}
	for _, id := range ids {
		keys = append(keys, ProductKey(id))
	}
	return c.cache.Delete(ctx, keys...)
}

// ResetCache drops every cached product entry, including ones left by a
// previous run. Caches without pattern support are left alone.
func (c *Catalog) ResetCache(ctx context.Context) error {
	c.generation.Add(1)
	pd, ok := c.cache.(patternDeleter)
	if !ok {
		return nil
	}
	if err := pd.DeleteByPattern(ctx, "product*"); err != nil {
		return fmt.Errorf("failed to reset product cache: %w", err)
	}
	log.Println("🗑️ Product cache reset")
	return nil
}

func (c *Catalog) invalidate(ctx context.Context, ids ...int64) {
	if err := c.InvalidateProducts(ctx, ids...); err != nil {
		log.Printf("⚠️ Failed to invalidate product cache: %v", err)
	}
}

// remember caches value unless the catalog was invalidated after gen was
// read. Another instance's invalidation is not seen here; its stale entry
// lives until the cache TTL.
func (c *Catalog) remember(ctx context.Context, gen uint64, key string, value interface{}) {
	if c.cache == nil || c.generation.Load() != gen {
		return
	}
	if err := c.cache.Set(ctx, key, value); err != nil {
		log.Printf("⚠️ Failed to cache %s: %v", key, err)
	}
}

// Cache key helpers
func ProductKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

const AllProductsKey = "products:all"

func productFromRequest(req models.CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &models.ValidationError{Field: "name", Reason: "is required"}
	}
	if req.Price.IsNegative() {
		return nil, &models.ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if req.Quantity < 0 {
		return nil, &models.ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	if req.Quantity > models.MaxQuantity {
		return nil, &models.ValidationError{Field: "quantity", Reason: fmt.Sprintf("must not exceed %d", models.MaxQuantity)}
	}

	return &models.Product{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price.Round(2),
		Quantity:    req.Quantity,
		Category:    strings.TrimSpace(req.Category),
	}, nil
}
