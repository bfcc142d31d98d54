// Package transport implements the Telegram Bot API surface telefetch needs:
// text messages, status edits, streaming video and document uploads, and
// webhook lifecycle management.
//
// Uploads go through a dedicated HTTP client with a generous timeout because
// a 2 GiB file on a slow uplink can legitimately take minutes. Failed calls
// carry enough classification for callers to tell a gone chat (blocked bot,
// deleted account) from a retryable hiccup.
package transport
