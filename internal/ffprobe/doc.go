// Package ffprobe shells out to ffprobe for container inspection.
//
// The transcode stage uses it to size the downscale ladder (source height,
// duration, audio bitrate) and delivery uses it to attach width/height/
// duration metadata to Telegram video uploads.
package ffprobe
