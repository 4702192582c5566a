package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dairydesk/dairydesk-golang/internal/mirror"
	"github.com/dairydesk/dairydesk-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Customer Handlers ---
//

// CreateCustomerInput defines the expected JSON for creating a customer.
type CreateCustomerInput struct {
	Name          string `json:"name" binding:"required"`
	Address       string `json:"address" binding:"required"`
	ContactNumber string `json:"contactNumber" binding:"required"`
}

// CreateCustomer is the handler for POST /v1/customers.
func (h *Handlers) CreateCustomer(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	var input CreateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer := &models.Customer{
		Name:          input.Name,
		Address:       input.Address,
		ContactNumber: input.ContactNumber,
	}

	id, err := h.Syncer.AddCustomer(c, userID, customer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create customer"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "Customer created",
		"customerId": id,
	})
}

// GetMyCustomers is the handler for GET /v1/customers.
func (h *Handlers) GetMyCustomers(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	set, err := h.Syncer.Open(c, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load customers"})
		return
	}

	customers, err := set.Customers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load customers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

// UpdateCustomerInput defines the expected JSON for a partial customer update.
type UpdateCustomerInput struct {
	Name          *string `json:"name"`
	Address       *string `json:"address"`
	ContactNumber *string `json:"contactNumber"`
}

// UpdateCustomer is the handler for PUT /v1/customers/:id.
func (h *Handlers) UpdateCustomer(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	customerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer ID"})
		return
	}

	var input UpdateCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := mirror.CustomerPatch{
		Name:          input.Name,
		Address:       input.Address,
		ContactNumber: input.ContactNumber,
	}

	err = h.Syncer.UpdateCustomer(c, userID, customerID, patch)
	if err != nil {
		switch {
		case errors.Is(err, mirror.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		case errors.Is(err, mirror.ErrNoFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update customer"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Customer updated"})
}

// DeleteCustomer is the handler for DELETE /v1/customers/:id.
// Deleting a customer also deletes every order referencing it, in a single
// transaction: either both happen or neither does.
func (h *Handlers) DeleteCustomer(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	customerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer ID"})
		return
	}

	err = h.Syncer.DeleteCustomer(c, userID, customerID)
	if err != nil {
		if errors.Is(err, mirror.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete customer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Customer and their orders deleted"})
}
