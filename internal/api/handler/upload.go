package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/minhvd/bgremover-be/internal/api/domain"
)

// allowedExtensions mirrors the accepted content types for cases where the
// client sends a generic part header and only the filename is meaningful
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// validateUpload checks the declared content type and the sniffed leading
// bytes of an upload. Returns the effective content type or an error reason.
func validateUpload(declared, filename string, head []byte) (string, bool) {
	declared = normalizeContentType(declared)

	if declared != "" && declared != "application/octet-stream" {
		if !domain.AllowedContentTypes[declared] {
			return declared, false
		}
	} else if !allowedExtensions[strings.ToLower(filepath.Ext(filename))] {
		return declared, false
	}

	// Sniffing catches renamed files; webp sniffs as image/webp since Go 1.16
	sniffed := http.DetectContentType(head)
	if !domain.AllowedContentTypes[sniffed] {
		return sniffed, false
	}

	return sniffed, true
}

// normalizeContentType strips any media-type parameters and lowercases
func normalizeContentType(ct string) string {
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = ct[:idx]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// resultFilename derives the suggested download name for a processed image
func resultFilename(originalFilename string) string {
	stem := strings.TrimSuffix(originalFilename, filepath.Ext(originalFilename))
	if stem == "" {
		stem = "image"
	}
	return "processed_" + stem + ".png"
}
