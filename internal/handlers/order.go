package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/ledger"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

type OrderHandler struct {
	ledger *ledger.Ledger
}

func NewOrderHandler(l *ledger.Ledger) *OrderHandler {
	return &OrderHandler{ledger: l}
}

// ListOrders returns all orders, newest first
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.ledger.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// GetOrder returns a single order with its customer and lines
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	order, err := h.ledger.View(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// CreateOrder reserves stock and records a new order
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.ledger.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("✅ Order #%d created with total $%s", order.ID, order.TotalAmount.StringFixed(2))
	c.JSON(http.StatusCreated, order)
}

// UpdateOrderStatus updates the order status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	var req models.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	order, err := h.ledger.ChangeStatus(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("✅ Order #%d status changed to %s", order.ID, order.Status)
	c.JSON(http.StatusOK, order)
}

// DeleteOrder removes an order and gives its stock back
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c, "order")
	if !ok {
		return
	}

	order, err := h.ledger.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("🗑️ Order #%d deleted, %d line(s) restocked", order.ID, len(order.Items))
	c.JSON(http.StatusOK, gin.H{"message": "order deleted", "id": order.ID})
}
