package domain

// Image record statuses
const (
	ImageStatusUploaded   = "UPLOADED"
	ImageStatusProcessing = "PROCESSING"
	ImageStatusDone       = "DONE"
	ImageStatusFailed     = "FAILED"
)
