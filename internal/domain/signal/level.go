// Package signal holds the deterministic classifiers that turn filings and
// insider-trading activity into actionable signal levels. Everything in
// this package is a pure function over its inputs; no graph traversal and
// no I/O, which keeps the rule precedence directly testable.
package signal

// Level is the base signal level assigned to a filing.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// CombinedLevel is the final level after merging a filing signal with
// insider-trading context.
type CombinedLevel string

const (
	CombinedLow         CombinedLevel = "low"
	CombinedMedium      CombinedLevel = "medium"
	CombinedHigh        CombinedLevel = "high"
	CombinedHighBearish CombinedLevel = "high_bearish"
	CombinedCritical    CombinedLevel = "critical"
)

// Direction is the net direction of a set of insider transactions.
type Direction string

const (
	DirectionNone    Direction = "none"
	DirectionBuying  Direction = "buying"
	DirectionSelling Direction = "selling"
	DirectionMixed   Direction = "mixed"
)

// ParseLevel maps a string to a Level, defaulting unknown input to low so
// downstream combination stays total.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelLow, LevelMedium, LevelHigh:
		return Level(s)
	}
	return LevelLow
}

// ParseDirection maps a string to a Direction, defaulting to none.
func ParseDirection(s string) Direction {
	switch Direction(s) {
	case DirectionNone, DirectionBuying, DirectionSelling, DirectionMixed:
		return Direction(s)
	}
	return DirectionNone
}
