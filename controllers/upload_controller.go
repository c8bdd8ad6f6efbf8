package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CharanLingolu/LC-Ai-Backend/services"
)

const maxUploadSize = 25 << 20 // 25 MiB

type UploadController struct {
	uploader services.Uploader
}

func NewUploadController(uploader services.Uploader) *UploadController {
	return &UploadController{uploader: uploader}
}

// Upload stores a multipart file and returns its public URL and content type,
// ready to be attached to a message as media.
func (uc *UploadController) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if header.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	url, err := uc.uploader.Store(c.Request.Context(), header.Filename, contentType, data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "type": contentType})
}
