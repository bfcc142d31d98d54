package pipeline

import (
	"strings"
	"time"

	"telefetch/internal/media"
)

// Status represents the lifecycle of a download job. While a batch is being
// worked the status reflects the current item's stage, so the fetch through
// deliver states cycle once per item.
type Status string

const (
	StatusPending     Status = "pending"
	StatusResolving   Status = "resolving"
	StatusFetching    Status = "fetching"
	StatusTranscoding Status = "transcoding"
	StatusDelivering  Status = "delivering"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

// ShutdownReason is the cancel reason applied to waiting jobs when the
// daemon stops.
const ShutdownReason = "daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusResolving,
	StatusFetching,
	StatusTranscoding,
	StatusDelivering,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusResolving:   {},
	StatusFetching:    {},
	StatusTranscoding: {},
	StatusDelivering:  {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status ends a job.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// isValidTransition enforces the job state machine. Terminal states absorb.
// Delivering and transcoding may return to fetching because the next batch
// item starts over.
func isValidTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusPending:
		return to == StatusResolving || to == StatusFailed || to == StatusCancelled
	case StatusResolving:
		return to == StatusFetching || to == StatusCompleted || to == StatusFailed || to == StatusCancelled
	case StatusFetching:
		return to == StatusTranscoding || to == StatusDelivering || to == StatusCompleted || to == StatusFailed || to == StatusCancelled
	case StatusTranscoding:
		return to == StatusDelivering || to == StatusFetching || to == StatusCompleted || to == StatusFailed || to == StatusCancelled
	case StatusDelivering:
		return to == StatusFetching || to == StatusCompleted || to == StatusFailed || to == StatusCancelled
	}
	return false
}

// Request is one submitted download, immutable once admitted.
type Request struct {
	UserID    int64
	ChatID    int64
	MessageID int
	URL       string
	Requested media.Tier
}

// Job is one admitted request. Copies are handed out by the Queue; the
// authoritative instance lives inside it.
type Job struct {
	ID        string
	UserID    int64
	ChatID    int64
	MessageID int
	URL       string
	Requested media.Tier

	Status       Status
	ErrorMessage string
	CancelReason string

	// Resolution progress, set once the batch is known.
	Title       string
	ItemIndex   int
	BatchSize   int
	Delivered   int
	FailedItems int

	// StatusMessageID is the chat message edited with live progress.
	StatusMessageID int

	SubmittedAt time.Time
	StartedAt   time.Time
	FinishedAt  time.Time

	// QueuePosition is filled on copies returned to callers: 1-based for
	// waiting jobs, zero otherwise.
	QueuePosition int
}

// Active reports whether the job has been claimed and is not yet terminal.
func (j Job) Active() bool {
	return !j.StartedAt.IsZero() && !j.Status.IsTerminal()
}
