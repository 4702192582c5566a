package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// UploadPhoto handles POST /v1/upload.
// It saves a product photo to a local "uploads" folder and returns the URL
// to store as the product's photo reference.
func (h *Handlers) UploadPhoto(c *gin.Context) {
	// 1. Get the file from the request
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	// 2. Create "uploads" directory if it doesn't exist
	uploadPath := "./uploads"
	if _, err := os.Stat(uploadPath); os.IsNotExist(err) {
		os.Mkdir(uploadPath, 0755)
	}

	// 3. Build a safe unique filename: slugified original name + uuid + ext
	ext := filepath.Ext(file.Filename)
	base := slug.Make(strings.TrimSuffix(file.Filename, ext))
	if base == "" {
		base = "photo"
	}
	newFilename := fmt.Sprintf("%s-%s%s", base, uuid.New().String(), ext)
	savePath := filepath.Join(uploadPath, newFilename)

	// 4. Save the file
	if err := c.SaveUploadedFile(file, savePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	// 5. Return the public URL
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	publicURL := fmt.Sprintf("%s/uploads/%s", baseURL, newFilename)

	c.JSON(http.StatusOK, gin.H{
		"url": publicURL,
	})
}
