// Package fetching implements the download stage: it selects the stream
// variant for the job's effective quality tier and pulls it into the item's
// scratch directory, muxing separate audio and video tracks when the source
// offers no progressive stream at that tier.
package fetching
