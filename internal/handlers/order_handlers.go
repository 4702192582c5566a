package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dairydesk/dairydesk-golang/internal/mirror"
	"github.com/dairydesk/dairydesk-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Order Handlers ---
//

// OrderItemInput is one line of an incoming order. No line total is
// accepted: totals are always computed on the server.
type OrderItemInput struct {
	ProductID   int64   `json:"productId" binding:"required"`
	ProductName string  `json:"productName" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	Unit        string  `json:"unit" binding:"required"`
	UnitPrice   float64 `json:"unitPrice" binding:"required,gt=0"`
}

// CreateOrderInput defines the expected JSON for creating an order.
type CreateOrderInput struct {
	CustomerID int64            `json:"customerId" binding:"required"`
	Date       string           `json:"date" binding:"required"`
	Items      []OrderItemInput `json:"items" binding:"required,min=1,dive"`
	AmountPaid float64          `json:"amountPaid" binding:"gte=0"`
	Status     string           `json:"status"`
}

// toOrderItems converts validated input lines to model items.
func toOrderItems(inputs []OrderItemInput) ([]models.OrderItem, string) {
	items := make([]models.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		if !models.ValidUnit(in.Unit) {
			return nil, "Item unit must be one of: ml, l, g, kg, pc"
		}
		items = append(items, models.OrderItem{
			ProductID:   in.ProductID,
			ProductName: in.ProductName,
			Quantity:    in.Quantity,
			Unit:        in.Unit,
			UnitPrice:   in.UnitPrice,
		})
	}
	return items, ""
}

// CreateOrder is the handler for POST /v1/orders.
func (h *Handlers) CreateOrder(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	var input CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Validate the calendar date and status up front.
	if _, err := time.Parse(models.DateLayout, input.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be in YYYY-MM-DD format"})
		return
	}
	status := input.Status
	if status == "" {
		status = models.OrderPending
	}
	if !models.ValidOrderStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be 'pending' or 'delivered'"})
		return
	}

	items, msg := toOrderItems(input.Items)
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	order := &models.Order{
		CustomerID: input.CustomerID,
		Date:       input.Date,
		Items:      items,
		AmountPaid: input.AmountPaid,
		Status:     status,
	}

	id, err := h.Syncer.AddOrder(c, userID, order)
	if err != nil {
		if errors.Is(err, mirror.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Order created",
		"orderId":     id,
		"totalAmount": order.TotalAmount,
	})
}

// GetMyOrders is the handler for GET /v1/orders.
// Served from the owner's mirror: newest date first, newest entry first
// within a date.
func (h *Handlers) GetMyOrders(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	set, err := h.Syncer.Open(c, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load orders"})
		return
	}

	orders, err := set.Orders()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// UpdateOrderInput defines the expected JSON for a partial order update.
type UpdateOrderInput struct {
	CustomerID *int64           `json:"customerId"`
	Date       *string          `json:"date"`
	Items      []OrderItemInput `json:"items"`
	AmountPaid *float64         `json:"amountPaid"`
	Status     *string          `json:"status"`
}

// UpdateOrder is the handler for PUT /v1/orders/:id.
func (h *Handlers) UpdateOrder(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var input UpdateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Date != nil {
		if _, err := time.Parse(models.DateLayout, *input.Date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be in YYYY-MM-DD format"})
			return
		}
	}
	if input.Status != nil && !models.ValidOrderStatus(*input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be 'pending' or 'delivered'"})
		return
	}

	patch := mirror.OrderPatch{
		CustomerID: input.CustomerID,
		Date:       input.Date,
		AmountPaid: input.AmountPaid,
		Status:     input.Status,
	}
	if input.Items != nil {
		if len(input.Items) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Order must have at least one item"})
			return
		}
		items, msg := toOrderItems(input.Items)
		if msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
		patch.Items = items
	}

	err = h.Syncer.UpdateOrder(c, userID, orderID, patch)
	if err != nil {
		switch {
		case errors.Is(err, mirror.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, mirror.ErrNoFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order updated"})
}

// DeleteOrder is the handler for DELETE /v1/orders/:id.
func (h *Handlers) DeleteOrder(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	err = h.Syncer.DeleteOrder(c, userID, orderID)
	if err != nil {
		if errors.Is(err, mirror.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order deleted"})
}
