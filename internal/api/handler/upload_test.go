package handler

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// webpHead is a minimal RIFF/WEBP container prefix, enough for sniffing
var webpHead = []byte("RIFF\x24\x00\x00\x00WEBPVP8 ")

func TestValidateUpload(t *testing.T) {
	validPNG := pngBytes(t)

	tests := []struct {
		name     string
		declared string
		filename string
		head     []byte
		wantOK   bool
	}{
		{
			name:     "png with matching header",
			declared: "image/png",
			filename: "photo.png",
			head:     validPNG,
			wantOK:   true,
		},
		{
			name:     "content type with parameters",
			declared: "image/png; charset=binary",
			filename: "photo.png",
			head:     validPNG,
			wantOK:   true,
		},
		{
			name:     "webp sniffed from bytes",
			declared: "image/webp",
			filename: "photo.webp",
			head:     webpHead,
			wantOK:   true,
		},
		{
			name:     "generic content type falls back to extension",
			declared: "application/octet-stream",
			filename: "photo.png",
			head:     validPNG,
			wantOK:   true,
		},
		{
			name:     "missing content type falls back to extension",
			declared: "",
			filename: "photo.jpeg",
			head:     validPNG,
			wantOK:   true,
		},
		{
			name:     "declared type not allowed",
			declared: "application/pdf",
			filename: "document.pdf",
			head:     validPNG,
			wantOK:   false,
		},
		{
			name:     "renamed text file is caught by sniffing",
			declared: "image/png",
			filename: "fake.png",
			head:     []byte("definitely not an image, just text padding to sniff"),
			wantOK:   false,
		},
		{
			name:     "generic type with disallowed extension",
			declared: "application/octet-stream",
			filename: "archive.zip",
			head:     validPNG,
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := validateUpload(tt.declared, tt.filename, tt.head)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestResultFilename(t *testing.T) {
	tests := []struct {
		name     string
		original string
		want     string
	}{
		{name: "simple jpeg", original: "cat.jpg", want: "processed_cat.png"},
		{name: "png keeps stem", original: "portrait.png", want: "processed_portrait.png"},
		{name: "multiple dots", original: "my.photo.v2.webp", want: "processed_my.photo.v2.png"},
		{name: "no extension", original: "snapshot", want: "processed_snapshot.png"},
		{name: "empty filename", original: "", want: "processed_image.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resultFilename(tt.original))
		})
	}
}
