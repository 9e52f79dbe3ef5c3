package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/catalog"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

type ProductHandler struct {
	catalog *catalog.Catalog
}

func NewProductHandler(cat *catalog.Catalog) *ProductHandler {
	return &ProductHandler{catalog: cat}
}

// ListProducts returns all products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

// GetProduct returns a single product
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "product")
	if !ok {
		return
	}

	product, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.catalog.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("✅ Product #%d created: %s", product.ID, product.Name)
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "product")
	if !ok {
		return
	}

	var req models.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.catalog.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "product")
	if !ok {
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	log.Printf("🗑️ Product #%d deleted", id)
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

// AdjustStock applies a signed stock correction
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := parseID(c, "product")
	if !ok {
		return
	}

	var req models.AdjustStockRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.catalog.AdjustStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) ReserveStock(c *gin.Context) {
	id, ok := parseID(c, "product")
	if !ok {
		return
	}

	var req models.StockRequest
	if !bindJSON(c, &req) {
		return
	}

	price, err := h.catalog.ReserveStock(c.Request.Context(), id, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"price": price})
}

func (h *ProductHandler) RestoreStock(c *gin.Context) {
	id, ok := parseID(c, "product")
	if !ok {
		return
	}

	var req models.StockRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.catalog.RestoreStock(c.Request.Context(), id, req.Quantity); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "stock restored"})
}
