package worker

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/minhvd/bgremover-be/internal/remover"
	"github.com/minhvd/bgremover-be/internal/worker/domain"
)

func TestShouldRequeue(t *testing.T) {
	w := &Worker{}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "already claimed is not requeued",
			err:  fmt.Errorf("image already claimed: %w", domain.ErrImageAlreadyClaimed),
			want: false,
		},
		{
			name: "max retries exceeded is not requeued",
			err:  fmt.Errorf("%w: removal failed", domain.ErrMaxRetriesExceeded),
			want: false,
		},
		{
			name: "invalid image is not requeued",
			err:  fmt.Errorf("%w: corrupted image data", remover.ErrInvalidImage),
			want: false,
		},
		{
			name: "retryable error is requeued",
			err:  domain.NewRetryableError(errors.New("service unavailable")),
			want: true,
		},
		{
			name: "wrapped retryable error is requeued",
			err:  fmt.Errorf("processing failed: %w", domain.NewRetryableError(errors.New("timeout"))),
			want: true,
		},
		{
			name: "unknown error is not requeued",
			err:  errors.New("something unexpected"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.shouldRequeue(tt.err))
		})
	}
}
