package rbac

import "fmt"

// AccessLevel describes the degree of permitted interaction with a capability.
type AccessLevel string

// Access levels, weakest to strongest. LevelCustom sits outside the ranked
// hierarchy: it marks a per-assignment configurable grant and satisfies any
// requirement.
const (
	LevelNone    AccessLevel = "none"
	LevelLimited AccessLevel = "limited"
	LevelView    AccessLevel = "view"
	LevelCreate  AccessLevel = "create"
	LevelEdit    AccessLevel = "edit"
	LevelManage  AccessLevel = "manage"
	LevelFull    AccessLevel = "full"
	LevelCustom  AccessLevel = "custom"
)

// levelRank orders levels for comparison. Custom ranks above full so that a
// configurable grant is never displaced by a ranked one during merges.
var levelRank = map[AccessLevel]int{
	LevelNone:    0,
	LevelLimited: 1,
	LevelView:    2,
	LevelCreate:  3,
	LevelEdit:    4,
	LevelManage:  5,
	LevelFull:    6,
	LevelCustom:  7,
}

// ParseAccessLevel converts a string into an AccessLevel.
func ParseAccessLevel(s string) (AccessLevel, error) {
	level := AccessLevel(s)
	if _, ok := levelRank[level]; !ok {
		return LevelNone, fmt.Errorf("rbac: unknown access level %q", s)
	}
	return level, nil
}

// Valid reports whether l is a known access level.
func (l AccessLevel) Valid() bool {
	_, ok := levelRank[l]
	return ok
}

func (l AccessLevel) String() string { return string(l) }

// CompareLevels returns a negative value when a ranks below b, zero when
// equal and a positive value when a ranks above b. Unknown levels rank as
// none.
func CompareLevels(a, b AccessLevel) int {
	return levelRank[a] - levelRank[b]
}

// MergeLevels returns the higher-ranking of two levels.
func MergeLevels(a, b AccessLevel) AccessLevel {
	if CompareLevels(a, b) >= 0 {
		return a
	}
	return b
}

// MeetsRequirement reports whether an actual level satisfies a required one.
// Custom grants satisfy every requirement.
func MeetsRequirement(actual, required AccessLevel) bool {
	if actual == LevelCustom {
		return true
	}
	return CompareLevels(actual, required) >= 0
}
