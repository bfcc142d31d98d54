package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"telefetch/internal/services"
)

// finishedHistoryLimit bounds the in-memory record of terminal jobs.
const finishedHistoryLimit = 32

// Queue admits download jobs, enforces the per-user limit, and hands jobs to
// workers in arrival order. All methods are safe for concurrent use; callers
// only ever see copies of the jobs inside.
type Queue struct {
	mu           sync.Mutex
	perUserLimit int

	jobs     map[string]*Job
	waiting  []*Job
	perUser  map[int64]int
	finished []*Job

	wake   chan struct{}
	closed bool
}

// NewQueue builds an empty queue. Limits below one are treated as one.
func NewQueue(perUserLimit int) *Queue {
	if perUserLimit < 1 {
		perUserLimit = 1
	}
	return &Queue{
		perUserLimit: perUserLimit,
		jobs:         make(map[string]*Job),
		perUser:      make(map[int64]int),
		wake:         make(chan struct{}, 1),
	}
}

// Admit accepts a request or rejects it without waiting. A user whose job
// count is already at the limit receives services.ErrBusy immediately.
func (q *Queue) Admit(req Request) (Job, error) {
	if strings.TrimSpace(req.URL) == "" {
		return Job{}, fmt.Errorf("%w: request URL is empty", services.ErrValidation)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return Job{}, ErrQueueClosed
	}
	if q.perUser[req.UserID] >= q.perUserLimit {
		return Job{}, fmt.Errorf("%w: finish or wait for the current one first", services.ErrBusy)
	}
	job := &Job{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		ChatID:      req.ChatID,
		MessageID:   req.MessageID,
		URL:         strings.TrimSpace(req.URL),
		Requested:   req.Requested,
		Status:      StatusPending,
		SubmittedAt: time.Now().UTC(),
	}
	q.jobs[job.ID] = job
	q.waiting = append(q.waiting, job)
	q.perUser[job.UserID]++
	q.signalLocked()
	return q.copyLocked(job), nil
}

// Claim blocks until a job is available, marks it started, and returns a
// copy. It returns ErrQueueClosed once the queue shuts down, or the context
// error if ctx ends first.
func (q *Queue) Claim(ctx context.Context) (Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Job{}, err
		}
		q.mu.Lock()
		if len(q.waiting) > 0 {
			job := q.waiting[0]
			q.waiting = q.waiting[1:]
			job.StartedAt = time.Now().UTC()
			// More work behind this one: pass the signal along so another
			// blocked worker wakes too.
			if len(q.waiting) > 0 {
				q.signalLocked()
			}
			cp := q.copyLocked(job)
			q.mu.Unlock()
			return cp, nil
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return Job{}, ErrQueueClosed
		}
		select {
		case <-ctx.Done():
			return Job{}, ctx.Err()
		case <-q.wake:
		}
	}
}

// Transition moves a job to a new status, enforcing the state machine and
// performing terminal bookkeeping.
func (q *Queue) Transition(id string, to Status) (Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := q.transitionLocked(job, to); err != nil {
		return Job{}, err
	}
	return q.copyLocked(job), nil
}

// Fail marks a job failed and records the message shown to the user.
func (q *Queue) Fail(id, message string) (Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !job.Status.IsTerminal() {
		job.ErrorMessage = strings.TrimSpace(message)
	}
	if err := q.transitionLocked(job, StatusFailed); err != nil {
		return Job{}, err
	}
	return q.copyLocked(job), nil
}

// Complete marks a job completed.
func (q *Queue) Complete(id string) (Job, error) {
	return q.Transition(id, StatusCompleted)
}

// Cancel removes a job that has not started yet. Jobs a worker already
// claimed return ErrJobActive; running stages are never interrupted.
func (q *Queue) Cancel(id, reason string) (Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if job.Status.IsTerminal() {
		return q.copyLocked(job), nil
	}
	if !q.isWaitingLocked(job.ID) {
		return Job{}, fmt.Errorf("%w: %s", ErrJobActive, id)
	}
	job.CancelReason = strings.TrimSpace(reason)
	if err := q.transitionLocked(job, StatusCancelled); err != nil {
		return Job{}, err
	}
	return q.copyLocked(job), nil
}

// SetProgress records the resolved title and per-item position for status
// reporting. Zero values leave the existing fields alone.
func (q *Queue) SetProgress(id, title string, itemIndex, batchSize int) (Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if title = strings.TrimSpace(title); title != "" {
		job.Title = title
	}
	if itemIndex > 0 {
		job.ItemIndex = itemIndex
	}
	if batchSize > 0 {
		job.BatchSize = batchSize
	}
	return q.copyLocked(job), nil
}

// RecordItemResult tallies one finished batch item.
func (q *Queue) RecordItemResult(id string, delivered bool) (Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if delivered {
		job.Delivered++
	} else {
		job.FailedItems++
	}
	return q.copyLocked(job), nil
}

// SetStatusMessage remembers the chat message the worker edits with live
// progress.
func (q *Queue) SetStatusMessage(id string, messageID int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	job.StatusMessageID = messageID
	return nil
}

// GetByID returns a copy of the job, including recently finished ones.
func (q *Queue) GetByID(id string) (Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return q.copyLocked(job), nil
}

// Snapshot captures the queue for status reporting.
type Snapshot struct {
	Active   []Job
	Waiting  []Job
	Finished []Job
}

// Snapshot returns copies of every known job grouped by where it sits.
// Waiting jobs carry their 1-based queue position; finished jobs are listed
// oldest first.
func (q *Queue) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	var snap Snapshot
	for _, job := range q.jobs {
		if job.Active() {
			snap.Active = append(snap.Active, *job)
		}
	}
	sort.Slice(snap.Active, func(i, j int) bool {
		return snap.Active[i].StartedAt.Before(snap.Active[j].StartedAt)
	})
	for i, job := range q.waiting {
		cp := *job
		cp.QueuePosition = i + 1
		snap.Waiting = append(snap.Waiting, cp)
	}
	for _, job := range q.finished {
		snap.Finished = append(snap.Finished, *job)
	}
	return snap
}

// Stats counts known jobs by status, including the finished history.
func (q *Queue) Stats() map[Status]int {
	q.mu.Lock()
	defer q.mu.Unlock()
	stats := make(map[Status]int)
	for _, job := range q.jobs {
		stats[job.Status]++
	}
	return stats
}

// Close stops admission, cancels every waiting job, and wakes all blocked
// workers. Jobs already claimed are left to finish on their own.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for len(q.waiting) > 0 {
		job := q.waiting[0]
		job.CancelReason = ShutdownReason
		// Pending jobs always accept cancellation; the transition also
		// removes the job from the waiting list.
		_ = q.transitionLocked(job, StatusCancelled)
	}
	close(q.wake)
}

func (q *Queue) transitionLocked(job *Job, to Status) error {
	if !isValidTransition(job.Status, to) {
		return fmt.Errorf("invalid transition for job %s: %s -> %s", job.ID, job.Status, to)
	}
	if job.Status.IsTerminal() {
		// Re-applying a terminal status is a no-op so bookkeeping never
		// runs twice.
		return nil
	}
	job.Status = to
	if to.IsTerminal() {
		q.finishLocked(job)
	}
	return nil
}

func (q *Queue) finishLocked(job *Job) {
	job.FinishedAt = time.Now().UTC()
	if q.perUser[job.UserID] > 0 {
		q.perUser[job.UserID]--
		if q.perUser[job.UserID] == 0 {
			delete(q.perUser, job.UserID)
		}
	}
	q.removeWaitingLocked(job.ID)
	q.finished = append(q.finished, job)
	if len(q.finished) > finishedHistoryLimit {
		evicted := q.finished[0]
		q.finished = q.finished[1:]
		delete(q.jobs, evicted.ID)
	}
}

func (q *Queue) removeWaitingLocked(id string) {
	for i, job := range q.waiting {
		if job.ID == id {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			return
		}
	}
}

func (q *Queue) isWaitingLocked(id string) bool {
	for _, job := range q.waiting {
		if job.ID == id {
			return true
		}
	}
	return false
}

// signalLocked nudges one blocked Claim. The channel has capacity one so a
// pending signal is never duplicated.
func (q *Queue) signalLocked() {
	if q.closed {
		return
	}
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) copyLocked(job *Job) Job {
	cp := *job
	for i, waiting := range q.waiting {
		if waiting == job {
			cp.QueuePosition = i + 1
			break
		}
	}
	return cp
}
