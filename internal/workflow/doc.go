// Package workflow drives admitted jobs through the pipeline.
//
// A fixed pool of workers claims jobs from the queue. Each job is resolved
// into a batch of one or more items, and every item walks the fetch,
// transcode, and delivery stages in order on the worker that claimed the
// job. Item failures are contained so the rest of a batch still delivers;
// an unreachable chat abandons the batch instead. Scratch space is
// reclaimed no matter how a job ends.
//
// The manager also relays progress into the requesting chat by editing the
// job's status message at stage boundaries, and calls stage health checks
// for the daemon's status surface.
package workflow
