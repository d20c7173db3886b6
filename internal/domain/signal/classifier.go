package signal

import (
	"github.com/edgarlens/edgarlens/internal/domain/entity"
)

// Classification is the result of classifying one filing.
type Classification struct {
	Level       Level    `json:"signal_level"`
	Reason      string   `json:"reason"`
	ItemNumbers []string `json:"item_numbers"`
}

// ClassifyFiling classifies a corporate-event filing into a base signal
// level from its reported item numbers. IPO paperwork is downgraded to low
// regardless of items: a registrant announcing its own offering is not a
// deal signal.
func ClassifyFiling(f entity.Filing) Classification {
	items := f.ItemNumbers()
	if f.MentionsIPO() {
		return Classification{
			Level:       LevelLow,
			Reason:      "IPO-related filing, not an event signal",
			ItemNumbers: items,
		}
	}
	level, reason := ClassifyItems(items)
	return Classification{Level: level, Reason: reason, ItemNumbers: items}
}

// ClassifyItems maps a set of reported 8-K item numbers to a signal level.
// The guards are evaluated in strict order and the first match wins.
// Predictive combinations (1.01 plus a governance change) outrank
// completed-deal items (2.01) even though 2.01 sounds more definitive:
// the system optimizes for lead time, not certainty.
func ClassifyItems(items []string) (Level, string) {
	has := make(map[string]bool, len(items))
	for _, it := range items {
		has[it] = true
	}

	switch {
	case has["1.01"] && (has["5.02"] || has["5.03"]) && !has["2.01"]:
		return LevelHigh, "material agreement with governance change, deal in progress"
	case has["1.01"] && !has["5.02"] && !has["5.03"] && !has["2.01"]:
		return LevelMedium, "material agreement, potential deal"
	case has["2.01"]:
		return LevelLow, "acquisition or disposition already completed"
	case onlyQualifying(has, "5.02") || onlyQualifying(has, "5.03"):
		return LevelLow, "routine executive or governance change"
	default:
		return LevelLow, "no actionable item combination"
	}
}

// onlyQualifying reports whether item is present without any of the other
// items the guards above treat as qualifying.
func onlyQualifying(has map[string]bool, item string) bool {
	if !has[item] {
		return false
	}
	for _, other := range []string{"1.01", "2.01", "5.02", "5.03"} {
		if other != item && has[other] {
			return false
		}
	}
	return true
}
