// Package fetch downloads one resolved item into job scratch space.
//
// Metadata is refreshed immediately before opening streams because stream
// URLs expire; the variant is then re-selected against the caller's tier so
// format drift between resolution and fetch cannot pick a stale itag. A
// progressive variant streams straight to disk. A video-only variant pulls
// the best companion audio stream and muxes the pair with a copy-codec
// ffmpeg pass.
//
// Transient failures (rate limits, 5xx, truncated streams) are retried with
// bounded exponential backoff. Restricted or sign-in failures are returned
// immediately with the resolver's classification attached.
package fetch
