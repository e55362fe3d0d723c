package handler

import (
	"log/slog"

	"github.com/minhvd/bgremover-be/internal/api/storage"
	"github.com/minhvd/bgremover-be/internal/filestore"
	"github.com/minhvd/bgremover-be/shared/postgresql"
	"github.com/minhvd/bgremover-be/shared/rabbitmq"
)

// FilesRoutePrefix is where the storage root is mounted for static serving
const FilesRoutePrefix = "/files"

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger         *slog.Logger
	DBClient       *postgresql.Client
	RabbitClient   *rabbitmq.Client
	Store          *filestore.Store
	MaxUploadBytes int64
}

// ImageHandler handles image-related HTTP requests
type ImageHandler struct {
	logger         *slog.Logger
	storage        *storage.Storage
	dbClient       *postgresql.Client
	rabbitClient   *rabbitmq.Client
	store          *filestore.Store
	maxUploadBytes int64
}

// NewImageHandler creates a new ImageHandler instance
func NewImageHandler(deps *Dependencies) *ImageHandler {
	return &ImageHandler{
		logger:         deps.Logger,
		storage:        storage.NewStorage(deps.DBClient),
		dbClient:       deps.DBClient,
		rabbitClient:   deps.RabbitClient,
		store:          deps.Store,
		maxUploadBytes: deps.MaxUploadBytes,
	}
}
