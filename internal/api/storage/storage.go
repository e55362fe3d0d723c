package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/minhvd/bgremover-be/internal/api/domain"
	"github.com/minhvd/bgremover-be/internal/api/model"
	"github.com/minhvd/bgremover-be/shared/postgresql"
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

// schema is applied at startup; the table is created from the model
// declaration rather than managed by external migrations.
const schema = `
	CREATE TABLE IF NOT EXISTS images (
		image_id           UUID PRIMARY KEY,
		original_filename  VARCHAR(255) NOT NULL,
		original_path      VARCHAR(512) NOT NULL,
		processed_filename VARCHAR(255),
		processed_path     VARCHAR(512),
		status             VARCHAR(32) NOT NULL DEFAULT 'UPLOADED',
		error_message      TEXT,
		worker_id          VARCHAR(64),
		retry_count        INT NOT NULL DEFAULT 0,
		max_retries        INT NOT NULL DEFAULT 3,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		processed_at       TIMESTAMPTZ,
		last_heartbeat_at  TIMESTAMPTZ
	);
	CREATE INDEX IF NOT EXISTS idx_images_status ON images (status);
	CREATE INDEX IF NOT EXISTS idx_images_created_at ON images (created_at DESC, image_id DESC);
`

// EnsureSchema creates the images table and indexes if they do not exist yet
func (s *Storage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func (s *Storage) CreateImage(ctx context.Context, img *model.Image) error {
	query := `
		INSERT INTO images (
			image_id, original_filename, original_path,
			status, retry_count, max_retries, created_at, updated_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7, $8
		)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		img.ImageID,
		img.OriginalFilename,
		img.OriginalPath,
		img.Status,
		img.RetryCount,
		img.MaxRetries,
		img.CreatedAt,
		img.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create image record: %w", err)
	}

	return nil
}

func (s *Storage) GetImageByID(ctx context.Context, imageID string) (*model.Image, error) {
	var img model.Image
	query := `
		SELECT
			image_id, original_filename, original_path,
			processed_filename, processed_path, status, error_message,
			worker_id, retry_count, max_retries,
			created_at, updated_at, processed_at, last_heartbeat_at
		FROM images
		WHERE image_id = $1
	`

	err := s.db.GetContext(ctx, &img, query, imageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return &img, nil
}

type ImageFilter struct {
	Status   string
	PageSize int
	Cursor   *ImageCursor
}

type ImageCursor struct {
	CreatedAt time.Time
	ImageID   string
}

func (s *Storage) ListImages(ctx context.Context, filter ImageFilter) ([]model.Image, error) {
	query := `
		SELECT
			image_id, original_filename, original_path,
			processed_filename, processed_path, status, error_message,
			worker_id, retry_count, max_retries,
			created_at, updated_at, processed_at, last_heartbeat_at
		FROM images
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, image_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.ImageID)
		argIdx += 2
	}

	// Order by created_at DESC, image_id DESC for consistent pagination
	query += " ORDER BY created_at DESC, image_id DESC"

	// Fetch one extra to determine if there are more results
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var images []model.Image
	err := s.db.SelectContext(ctx, &images, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	return images, nil
}

// MarkFailed records a terminal failure on an image record.
// Used by the API when enqueueing fails after the record was inserted.
func (s *Storage) MarkFailed(ctx context.Context, imageID, errorMsg string) error {
	query := `
		UPDATE images
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE image_id = $3
	`

	_, err := s.db.ExecContext(ctx, query, domain.ImageStatusFailed, errorMsg, imageID)
	if err != nil {
		return fmt.Errorf("failed to mark image as failed: %w", err)
	}

	return nil
}

func (s *Storage) DeleteImage(ctx context.Context, imageID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE image_id = $1`, imageID)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return domain.ErrImageNotFound
	}

	return nil
}
