// Package resolver turns submitted URLs into downloadable items.
//
// Resolve classifies a URL as a single video or a playlist and returns a
// Resolution whose Next method yields one item at a time, so a large playlist
// never has all of its video metadata in memory at once. Playlist entries are
// resolved lazily on each Next call; an entry that fails to resolve is
// reported with a per-item error and the batch continues.
//
// Resolution failures are classified with sentinel errors so callers can
// distinguish an unsupported URL from restricted content or a source that
// demands a signed-in session. Sign-in failures matter operationally: the bot
// relays them to the user and alerts the owner that cookies are needed.
package resolver
