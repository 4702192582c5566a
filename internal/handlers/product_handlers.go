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
// --- Product Handlers ---
//

// CreateProductInput defines the expected JSON for creating a product.
type CreateProductInput struct {
	Name      string  `json:"name" binding:"required"`
	UnitPrice float64 `json:"unitPrice" binding:"required,gt=0"`
	Quantity  float64 `json:"quantity" binding:"gte=0"`
	Unit      string  `json:"unit" binding:"required"`
	PhotoURL  *string `json:"photoUrl"`
}

// CreateProduct is the handler for POST /v1/products.
func (h *Handlers) CreateProduct(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidUnit(input.Unit) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unit must be one of: ml, l, g, kg, pc"})
		return
	}

	product := &models.Product{
		Name:      input.Name,
		UnitPrice: input.UnitPrice,
		Quantity:  input.Quantity,
		Unit:      input.Unit,
		PhotoURL:  input.PhotoURL,
	}

	id, err := h.Syncer.AddProduct(c, userID, product)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Product created",
		"productId": id,
	})
}

// GetMyProducts is the handler for GET /v1/products.
// Reads are served from the owner's mirror, not from a fresh query.
func (h *Handlers) GetMyProducts(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	set, err := h.Syncer.Open(c, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load products"})
		return
	}

	products, err := set.Products()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// UpdateProductInput defines the expected JSON for a partial product update.
// Only the fields present in the request are changed.
type UpdateProductInput struct {
	Name      *string  `json:"name"`
	UnitPrice *float64 `json:"unitPrice"`
	Quantity  *float64 `json:"quantity"`
	Unit      *string  `json:"unit"`
	PhotoURL  *string  `json:"photoUrl"`
}

// UpdateProduct is the handler for PUT /v1/products/:id.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var input UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Unit != nil && !models.ValidUnit(*input.Unit) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unit must be one of: ml, l, g, kg, pc"})
		return
	}
	if input.UnitPrice != nil && *input.UnitPrice <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unit price must be greater than zero"})
		return
	}

	patch := mirror.ProductPatch{
		Name:      input.Name,
		UnitPrice: input.UnitPrice,
		Quantity:  input.Quantity,
		Unit:      input.Unit,
		PhotoURL:  input.PhotoURL,
	}

	err = h.Syncer.UpdateProduct(c, userID, productID, patch)
	if err != nil {
		switch {
		case errors.Is(err, mirror.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		case errors.Is(err, mirror.ErrNoFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product updated"})
}

// DeleteProduct is the handler for DELETE /v1/products/:id.
func (h *Handlers) DeleteProduct(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	err = h.Syncer.DeleteProduct(c, userID, productID)
	if err != nil {
		if errors.Is(err, mirror.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}
