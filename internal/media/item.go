package media

import "time"

// DeliveryCeiling is the hard upper bound on any delivered file. The chat
// transport rejects larger uploads, so oversized artifacts are transcoded
// down until they fit.
const DeliveryCeiling int64 = 2 << 30

// Variant describes one encoded rendition of a video offered by the source.
type Variant struct {
	Itag          int
	MimeType      string
	Height        int
	Width         int
	Bitrate       int
	ContentLength int64
	AudioChannels int
	QualityLabel  string
}

// HasVideo reports whether the variant carries a video track.
func (v Variant) HasVideo() bool {
	return v.Height > 0 || v.Width > 0
}

// HasAudio reports whether the variant carries an audio track.
func (v Variant) HasAudio() bool {
	return v.AudioChannels > 0
}

// Progressive reports whether the variant muxes audio and video together and
// can be delivered without a local mux step.
func (v Variant) Progressive() bool {
	return v.HasVideo() && v.HasAudio()
}

// Item is one downloadable video yielded by resolution. Items exist only for
// the lifetime of the job that produced them; nothing here is persisted.
type Item struct {
	ID        string
	Title     string
	Author    string
	Duration  time.Duration
	SourceURL string
	Position  int // 1-based position within the batch
	BatchSize int
	Variants  []Variant
}

// Viable reports whether the item offers at least one downloadable video
// variant. Non-viable items are skipped with a per-item failure instead of
// aborting the batch.
func (i Item) Viable() bool {
	for _, variant := range i.Variants {
		if variant.HasVideo() {
			return true
		}
	}
	return false
}
