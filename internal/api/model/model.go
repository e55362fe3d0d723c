package model

import (
	"database/sql"
	"time"
)

// Image is the persisted record for one submitted background-removal job
type Image struct {
	ImageID           string         `db:"image_id"`
	OriginalFilename  string         `db:"original_filename"`
	OriginalPath      string         `db:"original_path"`
	ProcessedFilename sql.NullString `db:"processed_filename"`
	ProcessedPath     sql.NullString `db:"processed_path"`
	Status            string         `db:"status"`
	ErrorMessage      sql.NullString `db:"error_message"`
	WorkerID          sql.NullString `db:"worker_id"`
	RetryCount        int            `db:"retry_count"`
	MaxRetries        int            `db:"max_retries"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
	ProcessedAt       sql.NullTime   `db:"processed_at"`
	LastHeartbeatAt   sql.NullTime   `db:"last_heartbeat_at"`
}
