package media

import "strings"

// Tier identifies one rung of the fixed quality ladder a user can request.
type Tier string

const (
	Tier360p  Tier = "360p"
	Tier480p  Tier = "480p"
	Tier720p  Tier = "720p"
	Tier1080p Tier = "1080p"
	TierBest  Tier = "best"
)

// DefaultTier applies when a user has never stored a preference.
const DefaultTier = Tier720p

var allTiers = []Tier{Tier360p, Tier480p, Tier720p, Tier1080p, TierBest}

var tierRank = func() map[Tier]int {
	ranks := make(map[Tier]int, len(allTiers))
	for i, tier := range allTiers {
		ranks[tier] = i
	}
	return ranks
}()

// AllTiers returns the quality ladder ordered lowest to highest.
func AllTiers() []Tier {
	cp := make([]Tier, len(allTiers))
	copy(cp, allTiers)
	return cp
}

// ParseTier converts a string into a known Tier.
func ParseTier(value string) (Tier, bool) {
	normalized := Tier(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := tierRank[normalized]
	return normalized, ok
}

// Rank returns the tier's position on the ladder, lowest first. Unknown tiers
// rank below everything.
func (t Tier) Rank() int {
	if rank, ok := tierRank[t]; ok {
		return rank
	}
	return -1
}

// Height returns the vertical resolution the tier caps downloads at. TierBest
// returns 0, meaning uncapped.
func (t Tier) Height() int {
	switch t {
	case Tier360p:
		return 360
	case Tier480p:
		return 480
	case Tier720p:
		return 720
	case Tier1080p:
		return 1080
	default:
		return 0
	}
}

// Below returns the next tier down the ladder, or false at the bottom.
// TierBest steps down to the highest bounded tier.
func (t Tier) Below() (Tier, bool) {
	rank := t.Rank()
	if rank <= 0 {
		return "", false
	}
	return allTiers[rank-1], true
}

func (t Tier) String() string {
	return string(t)
}
