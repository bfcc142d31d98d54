// Package transcode shrinks oversized downloads under the delivery ceiling.
//
// It walks a descending resolution ladder with ffmpeg, re-encoding the source
// at each rung until an output fits. A source that exhausts the ladder
// produces a TooLargeError carrying the observed sizes so callers can tell
// the user how far off the file was.
package transcode
