// Package pipeline holds the job model and the in-memory admission queue.
//
// A Job is one submitted URL moving through resolve, fetch, transcode, and
// deliver. Admission enforces the per-user limit immediately (a second
// submission is rejected, never queued) while jobs past that gate wait in
// strict arrival order for a free worker. All job state lives in the Queue
// and is mutated only through its methods; callers get value copies.
//
// Task carries one batch item's state between stage handlers: fetch fills
// the fetched file, transcode replaces it with a rung output when the size
// ceiling demands it, delivery consumes the final path. Item transitions are
// monotonic in stage order and terminal states absorb.
package pipeline
