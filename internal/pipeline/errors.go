package pipeline

import "errors"

var (
	// ErrQueueClosed is returned once the queue has shut down.
	ErrQueueClosed = errors.New("queue closed")
	// ErrNotFound is returned when a job ID is unknown.
	ErrNotFound = errors.New("job not found")
	// ErrJobActive is returned when cancelling a job a worker already claimed.
	ErrJobActive = errors.New("job already running")
)
