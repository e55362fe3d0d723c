package remover

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareInput(t *testing.T) {
	t.Run("small image passes through untouched", func(t *testing.T) {
		data := encodePNG(t, 100, 60)

		out, format, err := PrepareInput(data, 1500)
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, data, out)
	})

	t.Run("zero max dimension disables downscaling", func(t *testing.T) {
		data := encodePNG(t, 300, 200)

		out, _, err := PrepareInput(data, 0)
		require.NoError(t, err)
		assert.Equal(t, data, out)
	})

	t.Run("oversized image is downscaled preserving aspect ratio", func(t *testing.T) {
		data := encodePNG(t, 400, 200)

		out, format, err := PrepareInput(data, 100)
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.NotEqual(t, data, out)

		scaled, scaledFormat, err := image.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, "png", scaledFormat)
		assert.Equal(t, 100, scaled.Bounds().Dx())
		assert.Equal(t, 50, scaled.Bounds().Dy())
	})

	t.Run("truncated data is rejected", func(t *testing.T) {
		_, _, err := PrepareInput([]byte("tiny"), 1500)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidImage)
	})

	t.Run("non-image data is rejected", func(t *testing.T) {
		garbage := bytes.Repeat([]byte("not an image at all "), 10)

		_, _, err := PrepareInput(garbage, 1500)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidImage)
	})

	t.Run("corrupted image body is rejected", func(t *testing.T) {
		data := encodePNG(t, 100, 100)
		// Keep the header so DecodeConfig succeeds, drop the tail
		truncated := data[:len(data)/2]

		_, _, err := PrepareInput(truncated, 1500)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidImage)
	})
}
