package domain

// Image is the slice of the record the worker needs to process a job
type Image struct {
	ImageID          string
	OriginalFilename string
	OriginalPath     string
	Status           string
	WorkerID         string
	RetryCount       int
	MaxRetries       int
}

// ImageMessage represents a processing message taken from RabbitMQ
type ImageMessage struct {
	ImageID     string `json:"image_id"`
	DeliveryTag uint64 `json:"-"`
}

// StoredFile points at a file that belongs to a deleted record
type StoredFile struct {
	ImageID string
	Path    string
}
