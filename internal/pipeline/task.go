package pipeline

import (
	"fmt"

	"telefetch/internal/media"
)

// ItemState tracks one batch entry through its stages.
type ItemState string

const (
	ItemPending     ItemState = "pending"
	ItemFetching    ItemState = "fetching"
	ItemFetched     ItemState = "fetched"
	ItemTranscoding ItemState = "transcoding"
	ItemDelivering  ItemState = "delivering"
	ItemDone        ItemState = "done"
	ItemFailed      ItemState = "failed"
)

var itemStageOrder = map[ItemState]int{
	ItemPending:     0,
	ItemFetching:    1,
	ItemFetched:     2,
	ItemTranscoding: 3,
	ItemDelivering:  4,
	ItemDone:        5,
	ItemFailed:      5,
}

// Terminal reports whether the item state is final.
func (s ItemState) Terminal() bool {
	return s == ItemDone || s == ItemFailed
}

// ValidItemTransition reports whether an item may move between states.
// Stages only advance (skipping is allowed, transcode is conditional),
// failure is reachable from any non-terminal state, and terminal states
// absorb.
func ValidItemTransition(from, to ItemState) bool {
	if from.Terminal() {
		return false
	}
	if to == ItemFailed {
		return true
	}
	fromOrder, ok := itemStageOrder[from]
	if !ok {
		return false
	}
	toOrder, ok := itemStageOrder[to]
	if !ok {
		return false
	}
	return toOrder > fromOrder
}

// Task carries one item's state through the stage handlers. Stages fill
// fields as they complete: fetch sets the fetched file, transcode sets the
// final file (possibly the fetched file unchanged), delivery consumes it.
type Task struct {
	Job  Job
	Item media.Item

	// Tier is the effective quality for this job after preference lookup.
	Tier media.Tier

	State      ItemState
	ScratchDir string

	FetchedPath string
	FetchedSize int64
	Variant     media.Variant
	Muxed       bool

	Transcoded   bool
	Rung         media.Tier
	OriginalSize int64

	FinalPath string
	FinalSize int64

	Delivered  bool
	AsDocument bool
}

// NewTask prepares the per-item state for one batch entry.
func NewTask(job Job, item media.Item, tier media.Tier, scratchDir string) *Task {
	return &Task{
		Job:        job,
		Item:       item,
		Tier:       tier,
		State:      ItemPending,
		ScratchDir: scratchDir,
	}
}

// Advance moves the item to the next state, enforcing stage order.
func (t *Task) Advance(to ItemState) error {
	if !ValidItemTransition(t.State, to) {
		return fmt.Errorf("invalid item transition: %s -> %s", t.State, to)
	}
	t.State = to
	return nil
}
