package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minhvd/bgremover-be/internal/api/domain"
	"github.com/minhvd/bgremover-be/internal/api/dto"
	"github.com/minhvd/bgremover-be/internal/api/model"
	"github.com/minhvd/bgremover-be/internal/api/storage"
)

const (
	defaultPageSize   = 20
	maxPageSize       = 100
	defaultMaxRetries = 3
	sniffLen          = 512
)

// UploadImage handles POST /api/v1/images
// Stores the uploaded file, persists the record, and enqueues processing
func (h *ImageHandler) UploadImage(c *gin.Context) {
	// Bound the body before the multipart form is parsed
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "Uploaded file is too large",
			})
			return
		}
		h.logger.Error("Missing or invalid file field", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "A file field named 'file' is required",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read uploaded file",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read uploaded file", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read uploaded file",
		})
		return
	}

	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}

	contentType, ok := validateUpload(fileHeader.Header.Get("Content-Type"), fileHeader.Filename, head)
	if !ok {
		h.logger.Warn("Unsupported upload content type",
			slog.String("content_type", contentType),
			slog.String("filename", fileHeader.Filename),
		)
		c.JSON(http.StatusUnsupportedMediaType, gin.H{
			"error": "Unsupported file type, expected PNG, JPEG, or WebP",
		})
		return
	}

	relPath, err := h.store.SaveOriginal(fileHeader.Filename, bytes.NewReader(data))
	if err != nil {
		h.logger.Error("Failed to store uploaded file", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to store uploaded file",
		})
		return
	}

	now := time.Now()
	img := model.Image{
		ImageID:          uuid.New().String(),
		OriginalFilename: fileHeader.Filename,
		OriginalPath:     relPath,
		Status:           domain.ImageStatusUploaded,
		MaxRetries:       defaultMaxRetries,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := h.storage.CreateImage(c.Request.Context(), &img); err != nil {
		h.logger.Error("Failed to create image record", slog.String("error", err.Error()))
		if rmErr := h.store.Remove(relPath); rmErr != nil {
			h.logger.Warn("Failed to remove orphaned upload", slog.String("error", rmErr.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create image record",
		})
		return
	}

	h.logger.Info("Image uploaded",
		slog.String("image_id", img.ImageID),
		slog.String("filename", img.OriginalFilename),
		slog.String("content_type", contentType),
		slog.Int("size_bytes", len(data)),
	)

	// Enqueue processing; a record that cannot be enqueued is marked FAILED
	// so it never sits invisible in UPLOADED
	msg, _ := json.Marshal(map[string]string{"image_id": img.ImageID})
	if err := h.rabbitClient.PublishWithRetry(c.Request.Context(), msg, "application/json"); err != nil {
		h.logger.Error("Failed to enqueue image for processing",
			slog.String("image_id", img.ImageID),
			slog.String("error", err.Error()),
		)
		if markErr := h.storage.MarkFailed(c.Request.Context(), img.ImageID, "failed to enqueue for processing"); markErr != nil {
			h.logger.Error("Failed to mark image as failed", slog.String("error", markErr.Error()))
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to enqueue image for processing",
		})
		return
	}

	c.JSON(http.StatusCreated, dto.FromModel(&img, FilesRoutePrefix))
}

// GetImage handles GET /api/v1/images/:image_id
// Returns metadata and processing status for one image
func (h *ImageHandler) GetImage(c *gin.Context) {
	img, ok := h.lookupImage(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, dto.FromModel(img, FilesRoutePrefix))
}

// ListImages handles GET /api/v1/images
// Lists image records with optional status filter and cursor pagination
func (h *ImageHandler) ListImages(c *gin.Context) {
	var req dto.ListImagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	cursor, err := DecodeImageCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	images, err := h.storage.ListImages(c.Request.Context(), storage.ImageFilter{
		Status:   req.Status,
		PageSize: req.PageSize,
		Cursor:   cursor,
	})
	if err != nil {
		h.logger.Error("Failed to list images", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list images",
		})
		return
	}

	resp := dto.ListImagesResponse{
		Images: make([]dto.ImageDTO, 0, len(images)),
	}

	// One extra row was fetched to detect another page
	hasMore := len(images) > req.PageSize
	if hasMore {
		images = images[:req.PageSize]
	}

	for i := range images {
		resp.Images = append(resp.Images, dto.FromModel(&images[i], FilesRoutePrefix))
	}

	if hasMore {
		last := images[len(images)-1]
		resp.NextCursor = EncodeImageCursor(&storage.ImageCursor{
			CreatedAt: last.CreatedAt,
			ImageID:   last.ImageID,
		})
	}

	c.JSON(http.StatusOK, resp)
}

// DownloadOriginal handles GET /api/v1/images/:image_id/original
func (h *ImageHandler) DownloadOriginal(c *gin.Context) {
	img, ok := h.lookupImage(c)
	if !ok {
		return
	}

	h.serveStoredFile(c, img.OriginalPath, img.OriginalFilename)
}

// DownloadResult handles GET /api/v1/images/:image_id/result
// The processed file only exists once the record reached DONE
func (h *ImageHandler) DownloadResult(c *gin.Context) {
	img, ok := h.lookupImage(c)
	if !ok {
		return
	}

	if img.Status != domain.ImageStatusDone || !img.ProcessedPath.Valid {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Processed image not available",
		})
		return
	}

	h.serveStoredFile(c, img.ProcessedPath.String, resultFilename(img.OriginalFilename))
}

// DeleteImage handles DELETE /api/v1/images/:image_id
// Removes the record and both stored files
func (h *ImageHandler) DeleteImage(c *gin.Context) {
	img, ok := h.lookupImage(c)
	if !ok {
		return
	}

	if err := h.storage.DeleteImage(c.Request.Context(), img.ImageID); err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Image not found",
			})
			return
		}
		h.logger.Error("Failed to delete image", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete image",
		})
		return
	}

	if err := h.store.Remove(img.OriginalPath); err != nil {
		h.logger.Warn("Failed to remove original file",
			slog.String("image_id", img.ImageID),
			slog.String("error", err.Error()),
		)
	}
	if img.ProcessedPath.Valid {
		if err := h.store.Remove(img.ProcessedPath.String); err != nil {
			h.logger.Warn("Failed to remove processed file",
				slog.String("image_id", img.ImageID),
				slog.String("error", err.Error()),
			)
		}
	}

	h.logger.Info("Image deleted", slog.String("image_id", img.ImageID))

	c.Status(http.StatusNoContent)
}

// lookupImage validates the path param and fetches the record, writing the
// error response itself when that fails
func (h *ImageHandler) lookupImage(c *gin.Context) (*model.Image, bool) {
	imageID := c.Param("image_id")

	if _, err := uuid.Parse(imageID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "image_id must be a valid UUID",
		})
		return nil, false
	}

	img, err := h.storage.GetImageByID(c.Request.Context(), imageID)
	if err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Image not found",
			})
			return nil, false
		}
		h.logger.Error("Failed to get image",
			slog.String("image_id", imageID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get image",
		})
		return nil, false
	}

	return img, true
}

// serveStoredFile sends a stored file as an attachment
func (h *ImageHandler) serveStoredFile(c *gin.Context, relPath, downloadName string) {
	abs, err := h.store.Abs(relPath)
	if err != nil {
		h.logger.Error("Invalid stored path", slog.String("path", relPath))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to locate stored file",
		})
		return
	}

	if _, err := os.Stat(abs); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "File missing from storage",
		})
		return
	}

	c.FileAttachment(abs, downloadName)
}
