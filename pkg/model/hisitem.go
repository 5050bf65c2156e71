package model

import "time"

// HisItem is a single time-stamped history sample. Timestamps are
// unique per record; a write at an existing timestamp overwrites the
// stored value.
type HisItem struct {
	TS  time.Time
	Val Value
}

// Span is a half-open time interval [Start, End).
type Span struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts falls in [s.Start, s.End).
func (s Span) Contains(ts time.Time) bool {
	return !ts.Before(s.Start) && ts.Before(s.End)
}
