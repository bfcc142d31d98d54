package media

import "errors"

// ErrNoVariant is returned when an item offers nothing selectable for the
// requested kind of stream.
var ErrNoVariant = errors.New("no matching variant")

// SelectVariant picks the rendition to download for a requested tier. It
// returns the highest-resolution video variant at or below the tier's height;
// when every variant exceeds the tier, it falls back to the smallest offered
// so the request still succeeds. TierBest picks the highest resolution
// available. Ties at a height break toward higher bitrate, preferring
// progressive variants so delivery can skip the mux step.
func SelectVariant(variants []Variant, requested Tier) (Variant, error) {
	candidates := make([]Variant, 0, len(variants))
	for _, variant := range variants {
		if variant.HasVideo() {
			candidates = append(candidates, variant)
		}
	}
	if len(candidates) == 0 {
		return Variant{}, ErrNoVariant
	}

	target := requested.Height()
	if target == 0 {
		return pickHighest(candidates), nil
	}

	var best *Variant
	for i := range candidates {
		candidate := &candidates[i]
		if candidate.Height > target {
			continue
		}
		if best == nil || betterAtOrBelow(*candidate, *best) {
			best = candidate
		}
	}
	if best != nil {
		return *best, nil
	}
	return pickLowest(candidates), nil
}

// SelectAudio picks the best audio-only variant for muxing alongside a
// video-only download.
func SelectAudio(variants []Variant) (Variant, error) {
	var best *Variant
	for i := range variants {
		candidate := &variants[i]
		if candidate.HasVideo() || !candidate.HasAudio() {
			continue
		}
		if best == nil || candidate.Bitrate > best.Bitrate {
			best = candidate
		}
	}
	if best == nil {
		return Variant{}, ErrNoVariant
	}
	return *best, nil
}

func pickHighest(candidates []Variant) Variant {
	best := candidates[0]
	for _, candidate := range candidates[1:] {
		if candidate.Height > best.Height {
			best = candidate
			continue
		}
		if candidate.Height == best.Height && betterSameHeight(candidate, best) {
			best = candidate
		}
	}
	return best
}

func pickLowest(candidates []Variant) Variant {
	best := candidates[0]
	for _, candidate := range candidates[1:] {
		if candidate.Height < best.Height {
			best = candidate
			continue
		}
		if candidate.Height == best.Height && betterSameHeight(candidate, best) {
			best = candidate
		}
	}
	return best
}

func betterAtOrBelow(candidate, current Variant) bool {
	if candidate.Height != current.Height {
		return candidate.Height > current.Height
	}
	return betterSameHeight(candidate, current)
}

func betterSameHeight(candidate, current Variant) bool {
	if candidate.Progressive() != current.Progressive() {
		return candidate.Progressive()
	}
	return candidate.Bitrate > current.Bitrate
}
