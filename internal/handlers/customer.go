package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/directory"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

type CustomerHandler struct {
	directory *directory.Directory
}

func NewCustomerHandler(dir *directory.Directory) *CustomerHandler {
	return &CustomerHandler{directory: dir}
}

func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	customers, err := h.directory.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, customers)
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := parseID(c, "customer")
	if !ok {
		return
	}

	customer, err := h.directory.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req models.CreateCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.directory.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("✅ Customer #%d created: %s", customer.ID, customer.Name)
	c.JSON(http.StatusCreated, customer)
}

func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := parseID(c, "customer")
	if !ok {
		return
	}

	var req models.UpdateCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.directory.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	id, ok := parseID(c, "customer")
	if !ok {
		return
	}

	if err := h.directory.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	log.Printf("🗑️ Customer #%d deleted", id)
	c.JSON(http.StatusOK, gin.H{"message": "customer deleted"})
}
