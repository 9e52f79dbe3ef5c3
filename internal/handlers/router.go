package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires every handler onto a gin engine with the default logger
// and recovery middleware.
func NewRouter(serviceName string, products *ProductHandler, customers *CustomerHandler, orders *OrderHandler) *gin.Engine {
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	})

	router.GET("/products", products.ListProducts)
	router.POST("/products", products.CreateProduct)
	router.GET("/products/:id", products.GetProduct)
	router.PUT("/products/:id", products.UpdateProduct)
	router.DELETE("/products/:id", products.DeleteProduct)
	router.POST("/products/:id/stock", products.AdjustStock)
	router.POST("/products/:id/reserve", products.ReserveStock)
	router.POST("/products/:id/restore", products.RestoreStock)

	router.GET("/customers", customers.ListCustomers)
	router.POST("/customers", customers.CreateCustomer)
	router.GET("/customers/:id", customers.GetCustomer)
	router.PUT("/customers/:id", customers.UpdateCustomer)
	router.DELETE("/customers/:id", customers.DeleteCustomer)

	router.GET("/orders", orders.ListOrders)
	router.POST("/orders", orders.CreateOrder)
	router.GET("/orders/:id", orders.GetOrder)
	router.DELETE("/orders/:id", orders.DeleteOrder)
	router.PATCH("/orders/:id/status", orders.UpdateOrderStatus)

	return router
}
