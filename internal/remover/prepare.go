package remover

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	_ "image/jpeg"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

// minImageBytes guards against obviously truncated uploads before any decode
const minImageBytes = 50

// PrepareInput verifies that data decodes as a supported image and
// downscales it to fit maxDim on the longer side before it is sent to the
// removal service. Oversized inputs tend to stall segmentation, so they are
// shrunk up front. When no downscale is needed the original bytes are
// returned untouched. The returned format is the detected input format
// ("png", "jpeg", "webp"); downscaled output is always "png".
func PrepareInput(data []byte, maxDim int) ([]byte, string, error) {
	if len(data) < minImageBytes {
		return nil, "", fmt.Errorf("%w: empty or truncated image data", ErrInvalidImage)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: unsupported or corrupted image: %v", ErrInvalidImage, err)
	}

	if maxDim <= 0 || (cfg.Width <= maxDim && cfg.Height <= maxDim) {
		// Still run a full decode so a truncated body fails here instead of
		// inside the removal service.
		if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
			return nil, "", fmt.Errorf("%w: corrupted image data: %v", ErrInvalidImage, err)
		}
		return data, format, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: corrupted image data: %v", ErrInvalidImage, err)
	}

	scaled := resize.Thumbnail(uint(maxDim), uint(maxDim), img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, "", fmt.Errorf("failed to encode downscaled image: %w", err)
	}

	return buf.Bytes(), "png", nil
}
