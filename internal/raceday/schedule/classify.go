// Package schedule normalizes raw upstream schedule entries into published
// race records: lifecycle classification, catalog joins with sentinel
// fallbacks, and the visibility filter for the race feed.
package schedule

import (
	"time"
)

// LifecycleState is the published state of a race, derived purely from
// time-to-start. It is recomputed on every pass and never stored as a fact.
type LifecycleState string

const (
	StateScheduled  LifecycleState = "Scheduled"
	StatePractice   LifecycleState = "Practice"
	StateQualifying LifecycleState = "Qualifying"
	StateRacing     LifecycleState = "Racing"
)

const (
	// qualifyingWindow is how long before the green flag a race counts as
	// qualifying; practiceWindow is when it first becomes visible.
	qualifyingWindow = 15 * time.Minute
	practiceWindow   = 45 * time.Minute
)

// Classify derives the lifecycle state from startTime and now.
func Classify(startTime, now time.Time) LifecycleState {
	delta := startTime.Sub(now)
	switch {
	case delta <= 0:
		return StateRacing
	case delta <= qualifyingWindow:
		return StateQualifying
	case delta <= practiceWindow:
		return StatePractice
	default:
		return StateScheduled
	}
}

// VisibilityWindow returns the start-time interval (exclusive, inclusive]
// within which a race classifies as Practice or Qualifying at the given
// instant. Store reads use the same window so the served feed matches what
// the normalizer would publish.
func VisibilityWindow(now time.Time) (from, to time.Time) {
	return now, now.Add(practiceWindow)
}
