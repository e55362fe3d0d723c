package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/minhvd/bgremover-be/internal/worker/domain"
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// ClaimImage attempts to claim a record using optimistic locking
// (UPLOADED -> PROCESSING). Returns the record on success, or
// ErrImageAlreadyClaimed when another worker got there first.
func (s *Storage) ClaimImage(ctx context.Context, imageID, workerID string) (*domain.Image, error) {
	query := `
		UPDATE images
		SET status = $1,
		    worker_id = $2,
		    last_heartbeat_at = NOW(),
		    updated_at = NOW()
		WHERE image_id = $3
		  AND status = $4
		RETURNING image_id, original_filename, original_path, retry_count, max_retries
	`

	var img domain.Image
	err := s.db.QueryRowContext(ctx, query, domain.ImageStatusProcessing, workerID, imageID, domain.ImageStatusUploaded).Scan(
		&img.ImageID,
		&img.OriginalFilename,
		&img.OriginalPath,
		&img.RetryCount,
		&img.MaxRetries,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("Failed to claim image - already claimed or not found",
				slog.String("image_id", imageID),
				slog.String("worker_id", workerID),
			)
			return nil, domain.ErrImageAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to claim image: %w", err)
	}

	img.Status = domain.ImageStatusProcessing
	img.WorkerID = workerID

	s.logger.Info("Image claimed",
		slog.String("image_id", imageID),
		slog.String("worker_id", workerID),
	)

	return &img, nil
}

// MarkDone records a successful result
func (s *Storage) MarkDone(ctx context.Context, imageID, processedFilename, processedPath string) error {
	query := `
		UPDATE images
		SET status = $1,
		    processed_filename = $2,
		    processed_path = $3,
		    error_message = NULL,
		    processed_at = NOW(),
		    updated_at = NOW()
		WHERE image_id = $4
	`

	_, err := s.db.ExecContext(ctx, query, domain.ImageStatusDone, processedFilename, processedPath, imageID)
	if err != nil {
		return fmt.Errorf("failed to mark image as done: %w", err)
	}

	s.logger.Info("Image marked as done",
		slog.String("image_id", imageID),
		slog.String("processed_path", processedPath),
	)

	return nil
}

// MarkFailed records a terminal failure
func (s *Storage) MarkFailed(ctx context.Context, imageID, errorMsg string) error {
	query := `
		UPDATE images
		SET status = $1,
		    error_message = $2,
		    updated_at = NOW()
		WHERE image_id = $3
	`

	_, err := s.db.ExecContext(ctx, query, domain.ImageStatusFailed, errorMsg, imageID)
	if err != nil {
		return fmt.Errorf("failed to mark image as failed: %w", err)
	}

	s.logger.Info("Image marked as failed",
		slog.String("image_id", imageID),
		slog.String("error_message", errorMsg),
	)

	return nil
}

// ReleaseForRetry puts a record back to UPLOADED and bumps its retry count
// so a requeued message can claim it again
func (s *Storage) ReleaseForRetry(ctx context.Context, imageID, errorMsg string) error {
	query := `
		UPDATE images
		SET status = $1,
		    worker_id = NULL,
		    retry_count = retry_count + 1,
		    error_message = $2,
		    updated_at = NOW()
		WHERE image_id = $3
	`

	_, err := s.db.ExecContext(ctx, query, domain.ImageStatusUploaded, errorMsg, imageID)
	if err != nil {
		return fmt.Errorf("failed to release image for retry: %w", err)
	}

	s.logger.Info("Image released for retry",
		slog.String("image_id", imageID),
	)

	return nil
}

// UpdateHeartbeat updates the last_heartbeat_at timestamp for a running job
func (s *Storage) UpdateHeartbeat(ctx context.Context, imageID string) error {
	query := `
		UPDATE images
		SET last_heartbeat_at = NOW(),
		    updated_at = NOW()
		WHERE image_id = $1 AND status = $2
	`

	result, err := s.db.ExecContext(ctx, query, imageID, domain.ImageStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to update heartbeat: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Warn("Heartbeat update - no rows affected (image may not be processing)",
			slog.String("image_id", imageID),
		)
	}

	return nil
}

// DeleteExpiredFailed removes FAILED records older than the cutoff and
// returns the stored files that belonged to them so the caller can unlink
// them from disk
func (s *Storage) DeleteExpiredFailed(ctx context.Context, cutoff time.Time) ([]domain.StoredFile, error) {
	query := `
		DELETE FROM images
		WHERE status = $1 AND updated_at < $2
		RETURNING image_id, original_path, processed_path
	`

	rows, err := s.db.QueryContext(ctx, query, domain.ImageStatusFailed, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to delete expired failed images: %w", err)
	}
	defer rows.Close()

	var files []domain.StoredFile
	for rows.Next() {
		var imageID, originalPath string
		var processedPath sql.NullString
		if err := rows.Scan(&imageID, &originalPath, &processedPath); err != nil {
			return nil, fmt.Errorf("failed to scan deleted image row: %w", err)
		}

		files = append(files, domain.StoredFile{ImageID: imageID, Path: originalPath})
		if processedPath.Valid {
			files = append(files, domain.StoredFile{ImageID: imageID, Path: processedPath.String})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading deleted image rows: %w", err)
	}

	return files, nil
}
