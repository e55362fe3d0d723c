package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/minhvd/bgremover-be/internal/filestore"
	"github.com/minhvd/bgremover-be/internal/remover"
	"github.com/minhvd/bgremover-be/internal/worker/domain"
	"github.com/minhvd/bgremover-be/internal/worker/storage"
	"github.com/minhvd/bgremover-be/shared/postgresql"
	"github.com/minhvd/bgremover-be/shared/rabbitmq"
)

// Config holds worker configuration
type Config struct {
	Logger            *slog.Logger
	DBClient          *postgresql.Client
	RabbitClient      *rabbitmq.Client
	Store             *filestore.Store
	Remover           remover.Remover
	Concurrency       int
	PrefetchCount     int
	JobTimeout        time.Duration
	HeartbeatInterval time.Duration
	MaxDimension      int
}

// Worker consumes processing messages and runs background removal jobs
type Worker struct {
	logger            *slog.Logger
	rabbitClient      *rabbitmq.Client
	storage           *storage.Storage
	store             *filestore.Store
	remover           remover.Remover
	workerID          string
	concurrency       int
	prefetchCount     int
	jobTimeout        time.Duration
	heartbeatInterval time.Duration
	maxDimension      int
	jobsChan          chan *domain.ImageMessage
	wg                sync.WaitGroup
	stopChan          chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = cfg.Concurrency
	}

	heartbeat := cfg.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}

	return &Worker{
		logger:            cfg.Logger,
		rabbitClient:      cfg.RabbitClient,
		storage:           storage.NewStorage(cfg.DBClient.GetDB(), cfg.Logger),
		store:             cfg.Store,
		remover:           cfg.Remover,
		workerID:          "worker-" + ksuid.New().String(),
		concurrency:       cfg.Concurrency,
		prefetchCount:     prefetch,
		jobTimeout:        cfg.JobTimeout,
		heartbeatInterval: heartbeat,
		maxDimension:      cfg.MaxDimension,
		jobsChan:          make(chan *domain.ImageMessage),
		stopChan:          make(chan struct{}),
	}
}

// WorkerID returns this instance's identifier
func (w *Worker) WorkerID() string {
	return w.workerID
}

// Start begins consuming and processing jobs; blocks until ctx is canceled
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("job_timeout", w.jobTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return err
	}

	w.spawnWorkerPool(ctx)

	// The dispatcher returns when ctx is canceled or the broker channel closes
	return w.startMessageDispatcher(ctx, deliveries)
}

// Stop gracefully stops the worker pool
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...", slog.String("worker_id", w.workerID))
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped", slog.String("worker_id", w.workerID))
}
