// Package store persists per-user state backed by SQLite.
//
// Two small tables live here: quality preferences chosen through the bot, and
// daily delivery counters written when an upload succeeds. The database uses
// WAL journaling with a busy timeout so the webhook handler, pipeline workers,
// and admin API can share a single file without coordination.
//
// Preference reads degrade gracefully: a missing row or a transient read
// failure yields the default tier so a download never blocks on the database.
package store
