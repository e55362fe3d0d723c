package dto

import (
	"time"

	"github.com/minhvd/bgremover-be/internal/api/model"
)

type ListImagesRequest struct {
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListImagesResponse struct {
	Images     []ImageDTO `json:"images"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

type ImageDTO struct {
	ImageID          string `json:"image_id"`
	OriginalFilename string `json:"original_filename"`
	OriginalURL      string `json:"original_url"`
	ProcessedURL     string `json:"processed_url,omitempty"`
	Status           string `json:"status"`
	ErrorMessage     string `json:"error_message,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
	ProcessedAt      string `json:"processed_at,omitempty"`
}

// FromModel converts a persisted record into its API representation.
// File paths are exposed as URLs under the static mount.
func FromModel(img *model.Image, filesPrefix string) ImageDTO {
	dto := ImageDTO{
		ImageID:          img.ImageID,
		OriginalFilename: img.OriginalFilename,
		OriginalURL:      filesPrefix + "/" + img.OriginalPath,
		Status:           img.Status,
		CreatedAt:        img.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        img.UpdatedAt.Format(time.RFC3339),
	}

	if img.ProcessedPath.Valid {
		dto.ProcessedURL = filesPrefix + "/" + img.ProcessedPath.String
	}
	if img.ErrorMessage.Valid {
		dto.ErrorMessage = img.ErrorMessage.String
	}
	if img.ProcessedAt.Valid {
		dto.ProcessedAt = img.ProcessedAt.Time.Format(time.RFC3339)
	}

	return dto
}
