package handlers

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"storyreel/internal/mediastore"
	"storyreel/utils"
)

// UploadClip handles POST /api/v1/uploads/clips: it stores an uploaded video
// clip in object storage and returns the storage path scenes reference as
// their clip_id.
func (h *ApplicationHandler) UploadClip(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Error getting file: %v", err))
	}

	fileHandle, err := file.Open()
	if err != nil {
		h.Logger.WithField("error", err.Error()).Error("Error opening uploaded file")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Error opening file")
	}
	defer fileHandle.Close()

	content, err := io.ReadAll(fileHandle)
	if err != nil {
		h.Logger.WithField("error", err.Error()).Error("Error reading uploaded file")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Error reading file")
	}
	if len(content) == 0 {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Uploaded file is empty")
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".mp4"
	}
	path := fmt.Sprintf("uploads/%s%s", uuid.NewString(), ext)

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}

	if _, err := h.Media.Upload(c.Context(), mediastore.BucketClips, path, content, contentType); err != nil {
		h.Logger.WithField("error", err.Error()).Error("Error uploading clip to storage")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Error uploading file")
	}

	h.Logger.WithFields(map[string]interface{}{"path": path, "bytes": len(content)}).
		Info("Clip uploaded")
	return utils.RespondWithJSON(c, fiber.StatusCreated, fiber.Map{
		"clip_id": path,
		"size":    len(content),
	})
}
