package remover

import (
	"context"
	"errors"
)

// Remover segments an image and strips its background. Implementations
// return the processed image as PNG bytes.
type Remover interface {
	Remove(ctx context.Context, filename string, image []byte) ([]byte, error)
}

var (
	// ErrInvalidImage means the input could not be decoded or was rejected
	// by the removal service; retrying will not help.
	ErrInvalidImage = errors.New("invalid image")

	// ErrServiceUnavailable means the removal service could not be reached
	// or failed internally; the job may be retried.
	ErrServiceUnavailable = errors.New("background removal service unavailable")
)
