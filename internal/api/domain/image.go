package domain

import (
	"errors"
)

// Image record statuses
const (
	ImageStatusUploaded   = "UPLOADED"
	ImageStatusProcessing = "PROCESSING"
	ImageStatusDone       = "DONE"
	ImageStatusFailed     = "FAILED"
)

var (
	ErrImageNotFound = errors.New("image not found")
)

// AllowedContentTypes lists the upload media types the API accepts
var AllowedContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/webp": true,
}
