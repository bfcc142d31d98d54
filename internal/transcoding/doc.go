// Package transcoding implements the conditional downscale stage: fetched
// files already under the delivery ceiling pass through untouched, oversized
// ones are re-encoded down the quality ladder until an output fits or the
// ladder is exhausted.
package transcoding
