// Package api defines wire-format types for the daemon's admin HTTP API and
// the client the CLI uses to call it. It translates internal pipeline models
// into transport-friendly DTOs so consumers never couple to internal types.
//
// # Key Types
//
// JobView: transport representation of a pipeline job with batch progress
// and delivery counters.
//
// StatusResponse: daemon running state, webhook registration, queue counts,
// stage health, and database diagnostics.
//
// UsageResponse: per-user per-day delivery totals over a window.
//
// # Converters
//
// FromJob: pipeline.Job -> JobView. FromStageHealth and FromScratchDirs cover
// the smaller payloads.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Internal enums (pipeline.Status, media.Tier)
// are exposed as their lowercase string forms. Timestamps use RFC3339 with
// milliseconds; zero times are omitted.
package api
