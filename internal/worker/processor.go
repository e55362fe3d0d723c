package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/minhvd/bgremover-be/internal/remover"
	"github.com/minhvd/bgremover-be/internal/worker/domain"
)

// processImage runs one background-removal job end to end: claim the record,
// prepare the input, call the removal service, store the result, and update
// the record status
func (w *Worker) processImage(ctx context.Context, msg *domain.ImageMessage) error {
	w.logger.Info("Processing image",
		slog.String("image_id", msg.ImageID),
		slog.String("worker_id", w.workerID),
	)

	// Claim the record (UPLOADED -> PROCESSING)
	img, err := w.storage.ClaimImage(ctx, msg.ImageID, w.workerID)
	if err != nil {
		if errors.Is(err, domain.ErrImageAlreadyClaimed) {
			w.logger.Warn("Image already claimed, skipping",
				slog.String("image_id", msg.ImageID),
			)
			return fmt.Errorf("image already claimed: %w", err)
		}
		return fmt.Errorf("failed to claim image: %w", err)
	}

	// Load the original upload from storage
	f, err := w.store.Open(img.OriginalPath)
	if err != nil {
		// The record exists but its file is gone; retrying cannot fix that
		w.logger.Error("Original file missing from storage",
			slog.String("image_id", img.ImageID),
			slog.String("path", img.OriginalPath),
		)
		_ = w.storage.MarkFailed(ctx, img.ImageID, "original file missing from storage")
		return fmt.Errorf("%w: original file missing", remover.ErrInvalidImage)
	}

	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return w.failOrRetry(ctx, img, fmt.Errorf("failed to read original file: %w", err))
	}

	// Verify the image decodes and shrink oversized inputs before the call
	prepared, format, err := remover.PrepareInput(data, w.maxDimension)
	if err != nil {
		if errors.Is(err, remover.ErrInvalidImage) {
			_ = w.storage.MarkFailed(ctx, img.ImageID, err.Error())
			return err
		}
		return w.failOrRetry(ctx, img, err)
	}

	w.logger.Debug("Input prepared",
		slog.String("image_id", img.ImageID),
		slog.String("format", format),
		slog.Int("bytes", len(prepared)),
	)

	// Run the removal under the job timeout with a heartbeat alongside
	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	heartbeatDone := make(chan struct{})
	go w.sendHeartbeat(jobCtx, img.ImageID, heartbeatDone)
	defer close(heartbeatDone)

	result, err := w.remover.Remove(jobCtx, path.Base(img.OriginalPath), prepared)
	if err != nil {
		if errors.Is(err, remover.ErrInvalidImage) {
			// The service rejected this image; no retry will change that
			_ = w.storage.MarkFailed(ctx, img.ImageID, err.Error())
			return err
		}
		return w.failOrRetry(ctx, img, fmt.Errorf("background removal failed: %w", err))
	}

	processedPath, err := w.store.SaveProcessed(result)
	if err != nil {
		return w.failOrRetry(ctx, img, fmt.Errorf("failed to store processed image: %w", err))
	}

	if err := w.storage.MarkDone(ctx, img.ImageID, path.Base(processedPath), processedPath); err != nil {
		w.logger.Error("Failed to mark image as done",
			slog.String("image_id", img.ImageID),
			slog.String("error", err.Error()),
		)
		// The result exists on disk; surface as retryable so the status
		// update gets another chance
		return w.failOrRetry(ctx, img, err)
	}

	w.logger.Info("Image processed",
		slog.String("image_id", img.ImageID),
		slog.String("processed_path", processedPath),
	)

	return nil
}

// failOrRetry decides between releasing the record for another attempt and
// marking it failed for good, based on the retry budget
func (w *Worker) failOrRetry(ctx context.Context, img *domain.Image, cause error) error {
	if img.RetryCount < img.MaxRetries {
		w.logger.Info("Image will be retried",
			slog.String("image_id", img.ImageID),
			slog.Int("retry_count", img.RetryCount),
			slog.Int("max_retries", img.MaxRetries),
		)

		if err := w.storage.ReleaseForRetry(ctx, img.ImageID, cause.Error()); err != nil {
			w.logger.Error("Failed to release image for retry",
				slog.String("image_id", img.ImageID),
				slog.String("error", err.Error()),
			)
			// Leave the record PROCESSING; the message is still requeued and
			// the next claim attempt will report it as already claimed
		}

		return domain.NewRetryableError(cause)
	}

	w.logger.Warn("Image exceeded max retries",
		slog.String("image_id", img.ImageID),
		slog.Int("retry_count", img.RetryCount),
		slog.Int("max_retries", img.MaxRetries),
	)

	if err := w.storage.MarkFailed(ctx, img.ImageID, cause.Error()); err != nil {
		w.logger.Error("Failed to mark image as failed",
			slog.String("image_id", img.ImageID),
			slog.String("error", err.Error()),
		)
	}

	return fmt.Errorf("%w: %v", domain.ErrMaxRetriesExceeded, cause)
}

// sendHeartbeat periodically bumps the record's heartbeat timestamp while a
// job runs
func (w *Worker) sendHeartbeat(ctx context.Context, imageID string, done <-chan struct{}) {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case <-ctx.Done():
			return

		case <-ticker.C:
			if err := w.storage.UpdateHeartbeat(ctx, imageID); err != nil {
				w.logger.Warn("Failed to update heartbeat",
					slog.String("image_id", imageID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
