package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/minhvd/bgremover-be/internal/filestore"
	"github.com/minhvd/bgremover-be/internal/worker/storage"
)

// Cleaner periodically purges FAILED records that are past the retention
// window, together with their stored files
type Cleaner struct {
	logger    *slog.Logger
	storage   *storage.Storage
	store     *filestore.Store
	retention time.Duration
	cron      *cron.Cron
}

// CleanerConfig holds cleanup configuration
type CleanerConfig struct {
	Logger    *slog.Logger
	Storage   *storage.Storage
	Store     *filestore.Store
	Schedule  string
	Retention time.Duration
}

// NewCleaner creates a Cleaner and registers its cron schedule
func NewCleaner(cfg *CleanerConfig) (*Cleaner, error) {
	c := &Cleaner{
		logger:    cfg.Logger,
		storage:   cfg.Storage,
		store:     cfg.Store,
		retention: cfg.Retention,
		cron:      cron.New(),
	}

	schedule := cfg.Schedule
	if schedule == "" {
		schedule = "@hourly"
	}

	if _, err := c.cron.AddFunc(schedule, c.run); err != nil {
		return nil, err
	}

	c.logger.Info("Cleanup scheduled",
		slog.String("schedule", schedule),
		slog.Duration("retention", cfg.Retention),
	)

	return c, nil
}

// Start begins the cleanup schedule
func (c *Cleaner) Start() {
	c.cron.Start()
}

// Stop stops the schedule and waits for a running cleanup to finish
func (c *Cleaner) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
}

func (c *Cleaner) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-c.retention)

	files, err := c.storage.DeleteExpiredFailed(ctx, cutoff)
	if err != nil {
		c.logger.Error("Cleanup failed",
			slog.String("error", err.Error()),
		)
		return
	}

	removed := 0
	for _, f := range files {
		if err := c.store.Remove(f.Path); err != nil {
			c.logger.Warn("Failed to remove file during cleanup",
				slog.String("image_id", f.ImageID),
				slog.String("path", f.Path),
				slog.String("error", err.Error()),
			)
			continue
		}
		removed++
	}

	if len(files) > 0 {
		c.logger.Info("Cleanup completed",
			slog.Int("files_removed", removed),
			slog.Time("cutoff", cutoff),
		)
	}
}
