// Package daemon runs telefetch as a long-lived process. It owns the pieces
// with a lifecycle: the webhook HTTP server Telegram calls into, the worker
// pool that drains the queue, the admin API the CLI talks to, and the
// janitor that reclaims abandoned scratch space.
//
// A lock file enforces single-instance execution. Startup materializes the
// cookies secret to disk, registers the webhook with Telegram (retrying a
// few times before giving up and running webhook-less), and tells the owner
// the bot is up. Shutdown deregisters the webhook, stops intake, cancels
// in-flight jobs, and releases the lock.
package daemon
