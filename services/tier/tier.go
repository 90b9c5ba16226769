package tier

// Tier is a pure function of a member's current point balance. It is not a
// ratchet: spending points can move a member back down.
type Tier string

const (
	Bronze Tier = "bronze"
	Silver Tier = "silver"
	Gold   Tier = "gold"
)

const (
	silverThreshold = 501
	goldThreshold   = 1501
)

// ForPoints maps a cumulative balance to its tier.
func ForPoints(total int64) Tier {
	switch {
	case total >= goldThreshold:
		return Gold
	case total >= silverThreshold:
		return Silver
	default:
		return Bronze
	}
}

// Multiplier is the purchase-point multiplier applied to base points earned
// on paid orders. Bonus awards (badges, challenges) are never multiplied.
func (t Tier) Multiplier() float64 {
	switch t {
	case Gold:
		return 1.5
	case Silver:
		return 1.2
	default:
		return 1.0
	}
}

// Parse normalises a stored tier name; unknown values fall back to Bronze.
func Parse(s string) Tier {
	switch Tier(s) {
	case Silver, Gold:
		return Tier(s)
	default:
		return Bronze
	}
}
