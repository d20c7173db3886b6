package signal

// InsiderContext summarizes insider-trading activity around a filing, as
// produced by the insider package.
type InsiderContext struct {
	NetDirection  Direction `json:"net_direction"`
	NumBuyers     int       `json:"num_buyers,omitempty"`
	TotalValue    float64   `json:"total_value,omitempty"`
	PersonMatches []string  `json:"person_matches,omitempty"`
}

// Combine merges a filing's base signal level with insider context into
// the final combined level. The function is total: every (level,
// direction) pair maps to exactly one output.
//
// Insider buying corroborating a predictive filing signal is the strongest
// outcome; insiders selling against a seemingly bullish signal is a
// separately flagged contradiction. Everything else passes the filing
// level through unchanged.
func Combine(level Level, ctx InsiderContext) CombinedLevel {
	if level == LevelHigh {
		switch ctx.NetDirection {
		case DirectionBuying:
			return CombinedCritical
		case DirectionSelling:
			return CombinedHighBearish
		}
	}
	switch level {
	case LevelHigh:
		return CombinedHigh
	case LevelMedium:
		return CombinedMedium
	default:
		return CombinedLow
	}
}
