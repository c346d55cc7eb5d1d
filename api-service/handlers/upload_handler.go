package handlers

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"classtrack-backend/api-service/middleware"
	"classtrack-backend/api-service/services"
	"classtrack-backend/shared/config"
)

type UploadHandler struct {
	storage *services.AudioStorage
}

func NewUploadHandler(storage *services.AudioStorage) *UploadHandler {
	return &UploadHandler{storage: storage}
}

// allowedAudioExt limits uploads to the recording formats the clients
// actually produce.
func allowedAudioExt(ext string) bool {
	switch ext {
	case "webm", "mp3", "m4a", "wav":
		return true
	}
	return false
}

// UploadAudio stores a voice recording and returns its public URL
// @Summary Upload audio
// @Description Accepts a multipart audio file (webm, mp3, m4a or wav) up to the configured size limit
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Audio file"
// @Success 201 {object} map[string]string "Stored file URL"
// @Failure 413 {object} map[string]string "File too large"
// @Failure 422 {object} map[string]string "Missing or unsupported file"
// @Security BearerAuth
// @Router /upload/audio [post]
func (h *UploadHandler) UploadAudio(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "file required"})
		return
	}

	maxSize := int64(config.GetConfig().GetAudioUploadMaxSizeMB()) * 1024 * 1024
	if fileHeader.Size > maxSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), ".")
	if !allowedAudioExt(ext) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Unsupported audio format"})
		return
	}
	contentType := services.AudioContentTypeForExt(ext)

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}
	defer file.Close()

	key := h.storage.ObjectKey(userID, ext)
	if err := h.storage.Upload(c.Request.Context(), key, file, fileHeader.Size, contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"key": key,
		"url": h.storage.PublicURL(key),
	})
}

// PresignAudioUpload returns a short-lived direct upload URL
// @Summary Presign audio upload
// @Description Issue a presigned PUT URL so the client can upload directly to object storage
// @Tags upload
// @Produce json
// @Param ext query string true "File extension (webm, mp3, m4a, wav)"
// @Success 200 {object} map[string]string "Presigned upload URL"
// @Failure 422 {object} map[string]string "Unsupported audio format"
// @Security BearerAuth
// @Router /upload/audio/presign [get]
func (h *UploadHandler) PresignAudioUpload(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	ext := strings.ToLower(c.Query("ext"))
	if !allowedAudioExt(ext) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Unsupported audio format"})
		return
	}

	key := h.storage.ObjectKey(userID, ext)
	uploadURL, err := h.storage.PresignPut(c.Request.Context(), key, 5*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to presign upload"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uploadUrl": uploadURL,
		"key":       key,
		"publicUrl": h.storage.PublicURL(key),
	})
}
