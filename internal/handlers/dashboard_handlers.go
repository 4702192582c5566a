package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/dairydesk/dairydesk-golang/internal/mirror"
	"github.com/dairydesk/dairydesk-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Dashboard Handlers ---
//

// GetDailySummary is the handler for GET /v1/dashboard/summary.
// It derives today's figures from the order mirror.
func (h *Handlers) GetDailySummary(c *gin.Context) {
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

	today := time.Now().Format(models.DateLayout)
	c.JSON(http.StatusOK, mirror.ComputeDailySummary(orders, today))
}

// StreamDailySummary is the handler for GET /v1/dashboard/stream.
// It holds an SSE connection open and pushes a freshly computed summary
// every time the owner's mirrors change, until the client disconnects.
func (h *Handlers) StreamDailySummary(c *gin.Context) {
	userID := c.MustGet("userID").(int64)

	set, err := h.Syncer.Open(c, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load orders"})
		return
	}

	events, cancel := set.Subscribe()
	defer cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")

	// First iteration pushes the current summary straight away; afterwards
	// each mirror change wakes the loop for another push.
	c.Stream(func(w io.Writer) bool {
		orders, err := set.Orders()
		if err != nil {
			c.SSEvent("error", err.Error())
			return false
		}

		today := time.Now().Format(models.DateLayout)
		c.SSEvent("summary", mirror.ComputeDailySummary(orders, today))

		select {
		case <-events:
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
