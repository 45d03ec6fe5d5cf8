package domain

import "time"

const (
	// SlotLength is the fixed duration of every review session.
	SlotLength = time.Hour
	// SlotAlignment is the grid session start times must fall on.
	SlotAlignment = 30 * time.Minute
)

// Slot is the half-open interval [Start, End) a session occupies.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SlotOf returns the one-hour slot beginning at start.
func SlotOf(start time.Time) Slot {
	return Slot{Start: start, End: start.Add(SlotLength)}
}

// IsAligned reports whether t sits exactly on a 30-minute boundary from the
// Unix epoch. The zero time is itself on that grid, so Truncate is enough.
func IsAligned(t time.Time) bool {
	return t.Truncate(SlotAlignment).Equal(t)
}

// Overlaps reports whether two slots share any instant. Touching endpoints
// do not overlap.
func (s Slot) Overlaps(o Slot) bool {
	return s.Start.Before(o.End) && s.End.After(o.Start)
}

// ValidateStart returns a ValidationError when start is off the grid.
func ValidateStart(field string, start time.Time) error {
	if start.IsZero() {
		return &ValidationError{Field: field, Reason: "is required"}
	}
	if !IsAligned(start) {
		return &ValidationError{Field: field, Reason: "time is accepted in 30 minute intervals"}
	}
	return nil
}
